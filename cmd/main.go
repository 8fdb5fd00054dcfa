package main

import (
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/panjf2000/ants/v2"
	"github.com/rs/zerolog/log"

	"github.com/lirigzong/Ai-Video-Create/application/ports/outbound"
	"github.com/lirigzong/Ai-Video-Create/application/services"
	"github.com/lirigzong/Ai-Video-Create/config"
	"github.com/lirigzong/Ai-Video-Create/infrastructure/adapters"
	"github.com/lirigzong/Ai-Video-Create/infrastructure/gin_interface/controllers"
	"github.com/lirigzong/Ai-Video-Create/middleware"
	mockproviders "github.com/lirigzong/Ai-Video-Create/mock"
)

func main() {
	_ = godotenv.Load()

	logger := adapters.NewZerologWrapper()

	pipelineConfig, err := config.GetPipelineConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get pipeline config")
	}
	assemblerConfig, err := config.GetAssemblerConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get assembler config")
	}
	outputConfig, err := config.GetOutputConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get output config")
	}
	storeConfig, err := config.GetStoreConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get store config")
	}

	panicHandler := func(p interface{}) {
		logger.Error(fmt.Errorf("%v", p), "Panic in worker pool")
	}
	workerPool, err := ants.NewPool(pipelineConfig.WorkerPoolSize, ants.WithPanicHandler(panicHandler))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create worker pool")
	}
	defer workerPool.Release()

	prober := adapters.NewFFprobeMediaProber(logger)
	assembler := adapters.NewFFmpegVideoAssembler(logger, prober, assemblerConfig)

	scriptGenerator, imageGenerator, speechGenerator := buildProviders(logger)
	store := buildJobStore(logger, storeConfig)
	publisher := buildPublisher(logger, outputConfig)

	assetGenerator := services.NewSegmentAssetGenerator(logger, imageGenerator, speechGenerator, prober, workerPool)

	orchestrator := services.NewPipelineOrchestrator(logger, store, scriptGenerator,
		assetGenerator, assembler, publisher, services.OrchestratorConfig{
			WorkDir:      pipelineConfig.WorkDir,
			StageTimeout: pipelineConfig.StageTimeout,
		})

	videoJobsController := controllers.NewVideoJobsController(logger, orchestrator, outputConfig.VideosDir)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))

	if err := router.SetTrustedProxies(nil); err != nil {
		log.Fatal().Err(err).Msg("Failed to set trusted proxies")
	}

	videoJobsController.RegisterRoutes(router)

	addr := os.Getenv("SERVER_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	if err := router.Run(addr); err != nil {
		log.Fatal().Err(err).Msg("Failed to start server")
	}
}

// buildProviders wires the real provider adapters, or the offline stubs when
// MOCK_PROVIDERS is set.
func buildProviders(logger outbound.LoggerPort) (outbound.ScriptGeneratorPort, outbound.ImageGeneratorPort, outbound.SpeechGeneratorPort) {
	if os.Getenv("MOCK_PROVIDERS") == "true" {
		logger.Warn("MOCK_PROVIDERS is set, using stub providers")
		return mockproviders.NewScriptGenerator(), mockproviders.NewImageGenerator(), mockproviders.NewSpeechGenerator()
	}

	deepSeekConfig, err := config.GetDeepSeekConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get deepseek config")
	}
	dalleConfig, err := config.GetDaLLeConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get dalle config")
	}
	elevenLabsConfig, err := config.GetElevenLabsConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get eleven labs config")
	}

	contentFetcher := adapters.NewContentFetcher(logger)
	return adapters.NewDeepSeekScriptGenerator(logger, deepSeekConfig),
		adapters.NewImageGenerator(contentFetcher, dalleConfig, logger),
		adapters.NewSpeechGenerator(contentFetcher, elevenLabsConfig, logger)
}

func buildJobStore(logger outbound.LoggerPort, storeConfig *config.StoreConfig) outbound.JobStorePort {
	if storeConfig.Backend == config.StoreMemory {
		return adapters.NewMemoryJobStore()
	}

	dynamoConfig, err := config.GetDynamoConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get dynamo config")
	}
	sess := session.Must(session.NewSessionWithOptions(session.Options{
		SharedConfigState: session.SharedConfigEnable,
	}))
	return adapters.NewDynamoJobStore(logger, dynamodb.New(sess), dynamoConfig)
}

func buildPublisher(logger outbound.LoggerPort, outputConfig *config.OutputConfig) outbound.VideoPublisherPort {
	if outputConfig.Publisher == config.PublisherLocal {
		return adapters.NewLocalVideoPublisher(logger, outputConfig)
	}

	s3Config, err := config.GetS3Config()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get s3 config")
	}
	sess, err := session.NewSession(&aws.Config{Region: aws.String(s3Config.Region)})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create aws session")
	}
	return adapters.NewS3VideoPublisher(logger, s3.New(sess), s3Config)
}
