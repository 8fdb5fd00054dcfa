package outbound

// MediaProberPort inspects media files on disk.
type MediaProberPort interface {
	// Duration returns the exact duration in fractional seconds.
	Duration(path string) (float64, error)
	// CanDecode returns an error when the file is not a decodable media asset.
	CanDecode(path string) error
}
