// Package providers contains dependency injection providers for the ABC server.
package providers

import (
	"github.com/samber/do/v2"

	"github.com/abctag/abc-server/internal/category"
	"github.com/abctag/abc-server/internal/config"
	"github.com/abctag/abc-server/internal/logger"
	"github.com/abctag/abc-server/internal/metrics"
)

// ProvideConfig provides the application configuration.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	return config.LoadConfig()
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		Format:      cfg.Logger.Format,
		AddSource:   cfg.Logger.AddSource || cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
	})

	log.Info("Starting ABC server",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"data_path", cfg.App.DataPath,
		"classifier", cfg.Classifier.SubmitURL,
	)

	return log, nil
}

// ProvideMetrics provides the Prometheus collectors.
func ProvideMetrics(i do.Injector) (*metrics.Metrics, error) {
	return metrics.New(), nil
}

// ProvideLabelSet provides the ordered category label set.
func ProvideLabelSet(i do.Injector) (*category.Set, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	labels, err := cfg.LabelSet()
	if err != nil {
		return nil, err
	}

	log.Info("Category labels loaded", "count", labels.Len(), "source", labelSource(cfg))
	return labels, nil
}

func labelSource(cfg *config.Config) string {
	switch {
	case cfg.Categories.LabelsFile != "":
		return cfg.Categories.LabelsFile
	case len(cfg.Categories.Labels) > 0:
		return "config"
	default:
		return "built-in"
	}
}
