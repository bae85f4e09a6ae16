package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/caarlos0/env/v11"
	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"

	"github.com/michelfeldheim/cert-orchestrator/internal/aws"
	"github.com/michelfeldheim/cert-orchestrator/internal/cfn"
	"github.com/michelfeldheim/cert-orchestrator/internal/workflow"
)

// handlerConfig is the environment configuration of one handler invocation.
type handlerConfig struct {
	LogLevel             string        `env:"LOG_LEVEL" envDefault:"info"`
	CallbackTimeout      time.Duration `env:"CALLBACK_TIMEOUT" envDefault:"30s"`
	FanOutLimit          int           `env:"RECORD_FANOUT_LIMIT" envDefault:"4"`
	ToleratedDeleteCodes []string      `env:"TOLERATED_DELETE_CODES" envSeparator:","`
}

func main() {
	var cfg handlerConfig
	if err := env.Parse(&cfg); err != nil {
		os.Stderr.WriteString("failed to parse environment config: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger := buildLogger(cfg.LogLevel)
	setupLog := logger.WithName("setup")

	event, err := readEvent(os.Args[1:])
	if err != nil {
		setupLog.Error(err, "unable to read lifecycle event")
		os.Exit(1)
	}

	ctx := context.Background()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		setupLog.Error(err, "unable to load AWS config")
		os.Exit(1)
	}
	// Certificates for global consumers must live in the region the stack
	// names, wherever this handler runs.
	if region := event.ResourceProperties.Region; region != "" {
		awsCfg.Region = region
	}
	// On teardown the ARN is authoritative about where the certificate lives.
	if event.RequestType == cfn.RequestTypeDelete && aws.IsCertificateARN(event.PhysicalResourceID) {
		if region, err := aws.ExtractRegionFromARN(event.PhysicalResourceID); err == nil {
			awsCfg.Region = region
		}
	}

	certificates := aws.NewSDKCertificateClient(awsCfg)
	zones := aws.NewSDKZoneClient(awsCfg)
	assumedZones := func(ctx context.Context, roleArn string) (aws.ZoneClient, error) {
		assumedCfg, err := aws.AssumeRoleConfig(ctx, awsCfg, roleArn)
		if err != nil {
			return nil, err
		}
		return aws.NewSDKZoneClient(assumedCfg), nil
	}

	workflowConfig := workflow.DefaultConfig()
	workflowConfig.FanOutLimit = cfg.FanOutLimit
	if len(cfg.ToleratedDeleteCodes) > 0 {
		workflowConfig.ToleratedDeleteCodes = cfg.ToleratedDeleteCodes
	}

	dispatcher := &cfn.Dispatcher{
		Provisioner: workflow.NewWorkflow(certificates, zones, assumedZones, workflowConfig, logger.WithName("workflow")),
		Reporter: &cfn.Reporter{
			Client: &http.Client{Timeout: cfg.CallbackTimeout},
			Logger: logger.WithName("reporter"),
		},
		Logger: logger.WithName("dispatcher"),
	}

	setupLog.Info("Handling lifecycle event",
		"requestType", event.RequestType,
		"requestId", event.RequestID,
		"region", awsCfg.Region)

	if err := dispatcher.Handle(ctx, event); err != nil {
		setupLog.Error(err, "unable to deliver callback to host")
		os.Exit(1)
	}
}

// readEvent parses the inbound event from the file named in args, or from
// stdin when the host pipes it directly.
func readEvent(args []string) (cfn.Event, error) {
	var event cfn.Event

	var data []byte
	var err error
	if len(args) > 0 {
		data, err = os.ReadFile(args[0])
	} else {
		data, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		return event, err
	}

	if err := json.Unmarshal(data, &event); err != nil {
		return event, err
	}
	return event, nil
}

func buildLogger(level string) logr.Logger {
	zapCfg := zap.NewProductionConfig()
	if err := zapCfg.Level.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	zl, err := zapCfg.Build()
	if err != nil {
		os.Stderr.WriteString("failed to build logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	return zapr.NewLogger(zl)
}
