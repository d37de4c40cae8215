package inputgate

import (
	"log/slog"

	"github.com/viant/inputgate/approval"
	"github.com/viant/inputgate/auth"
	"github.com/viant/inputgate/model/prompt"
	"github.com/viant/inputgate/model/run"
	"github.com/viant/inputgate/service/dao"
	"github.com/viant/inputgate/service/notifier"
	"github.com/viant/inputgate/tracing"
	"github.com/viant/x"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Option customizes the service at construction.
type Option func(s *Service)

// WithConfig sets the gate configuration.
func WithConfig(config *Config) Option {
	return func(s *Service) { s.config = config }
}

// WithEngine sets the execution engine queried during reconciliation. An
// engine that also implements approval.Tracker is informed of approval
// lifecycle transitions.
func WithEngine(engine approval.Engine) Option {
	return func(s *Service) { s.engine = engine }
}

// WithAuthorizer sets the authorization service deciding who may settle or
// cancel approvals.
func WithAuthorizer(authorizer auth.Service) Option {
	return func(s *Service) { s.authorizer = authorizer }
}

// WithRecordDAO sets the run record store.
func WithRecordDAO(store dao.Service[string, run.Record]) Option {
	return func(s *Service) { s.recordDAO = store }
}

// WithNotifier sets the lifecycle event service.
func WithNotifier(service *notifier.Service) Option {
	return func(s *Service) { s.notifier = service }
}

// WithLogger sets the service logger, overriding the one the configuration
// would build.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithTypes sets the parameter data type registry.
func WithTypes(types *prompt.Types) Option {
	return func(s *Service) { s.types = types }
}

// WithExtensionTypes registers additional parameter data types.
func WithExtensionTypes(types ...*x.Type) Option {
	return func(s *Service) {
		if s.types == nil {
			s.types = prompt.NewTypes()
		}
		for i := range types {
			s.types.Register(types[i])
		}
	}
}

// WithTracing configures OpenTelemetry tracing for the service. If outputFile is empty the
// stdout exporter is used; otherwise traces are written to the supplied file path. The function is
// safe to call multiple times – the first successful initialisation wins.
func WithTracing(serviceName, serviceVersion, outputFile string) Option {
	return func(s *Service) {
		_ = tracing.Init(serviceName, serviceVersion, outputFile)
	}
}

// WithTracingExporter configures OpenTelemetry tracing using a custom SpanExporter. This enables
// integrations with exporters other than the built-in stdout exporter, for example OTLP, Jaeger or
// Zipkin. The function is safe to call multiple times – the first successful initialisation wins.
func WithTracingExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) Option {
	return func(s *Service) {
		_ = tracing.InitWithExporter(serviceName, serviceVersion, exporter)
	}
}
