package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-config/cfgx"
	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
	opts "github.com/goliatone/go-options"
)

type ErrorFactory func(message string, category ...goerrors.Category) *goerrors.Error

type ErrorMapper func(err error) *goerrors.Error

type ConfigProvider interface {
	Load(ctx context.Context, defaults Config) (Config, error)
}

type RawConfigLoader interface {
	LoadRaw(ctx context.Context) (map[string]any, error)
}

type OptionsResolver interface {
	Resolve(defaults Config, loaded Config, runtime Config) (Config, error)
}

type serviceBuilder struct {
	runtimeConfig     Config
	logger            Logger
	loggerProvider    LoggerProvider
	metricsRecorder   MetricsRecorder
	errorFactory      ErrorFactory
	errorMapper       ErrorMapper
	configProvider    ConfigProvider
	optionsResolver   OptionsResolver
	tokenSource       TokenSource
	tokenRevoker      TokenRevoker
	submitter         PaymentSubmitter
	tabs              TabController
	scaStore          ScaEntryStore
	stateStore        TransactionStateStore
	statusSink        StatusSink
	channel           ChannelConnector
	jobEnqueuer       JobEnqueuer
	persistenceClient any
	repositoryFactory any
}

type Option func(*serviceBuilder)

func WithLogger(logger Logger) Option {
	return func(b *serviceBuilder) {
		b.logger = logger
	}
}

func WithLoggerProvider(provider LoggerProvider) Option {
	return func(b *serviceBuilder) {
		b.loggerProvider = provider
	}
}

func WithMetricsRecorder(recorder MetricsRecorder) Option {
	return func(b *serviceBuilder) {
		b.metricsRecorder = recorder
	}
}

func WithErrorFactory(factory ErrorFactory) Option {
	return func(b *serviceBuilder) {
		b.errorFactory = factory
	}
}

func WithErrorMapper(mapper ErrorMapper) Option {
	return func(b *serviceBuilder) {
		b.errorMapper = mapper
	}
}

func WithConfigProvider(provider ConfigProvider) Option {
	return func(b *serviceBuilder) {
		b.configProvider = provider
	}
}

func WithOptionsResolver(resolver OptionsResolver) Option {
	return func(b *serviceBuilder) {
		b.optionsResolver = resolver
	}
}

func WithTokenSource(source TokenSource) Option {
	return func(b *serviceBuilder) {
		b.tokenSource = source
	}
}

func WithTokenRevoker(revoker TokenRevoker) Option {
	return func(b *serviceBuilder) {
		b.tokenRevoker = revoker
	}
}

func WithPaymentSubmitter(submitter PaymentSubmitter) Option {
	return func(b *serviceBuilder) {
		b.submitter = submitter
	}
}

func WithTabController(tabs TabController) Option {
	return func(b *serviceBuilder) {
		b.tabs = tabs
	}
}

func WithScaEntryStore(store ScaEntryStore) Option {
	return func(b *serviceBuilder) {
		b.scaStore = store
	}
}

func WithTransactionStateStore(store TransactionStateStore) Option {
	return func(b *serviceBuilder) {
		b.stateStore = store
	}
}

func WithStatusSink(sink StatusSink) Option {
	return func(b *serviceBuilder) {
		b.statusSink = sink
	}
}

func WithChannelConnector(channel ChannelConnector) Option {
	return func(b *serviceBuilder) {
		b.channel = channel
	}
}

func WithJobEnqueuer(enqueuer JobEnqueuer) Option {
	return func(b *serviceBuilder) {
		b.jobEnqueuer = enqueuer
	}
}

func WithPersistenceClient(client any) Option {
	return func(b *serviceBuilder) {
		b.persistenceClient = client
	}
}

func WithRepositoryFactory(factory any) Option {
	return func(b *serviceBuilder) {
		b.repositoryFactory = factory
	}
}

func defaultServiceBuilder(runtime Config) serviceBuilder {
	loggerProvider, logger := glog.Resolve("payflow", nil, nil)
	return serviceBuilder{
		runtimeConfig:   runtime,
		logger:          logger,
		loggerProvider:  loggerProvider,
		metricsRecorder: NopMetricsRecorder{},
		errorFactory:    goerrors.New,
		errorMapper:     defaultErrorMapper,
		configProvider:  NewCfgxConfigProvider(nil),
		optionsResolver: GoOptionsResolver{},
	}
}

func defaultErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}
	return paymentErrorMapper(err)
}

type staticRawConfigLoader struct {
	Values map[string]any
}

func (l staticRawConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.Values) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(l.Values))
	for key, value := range l.Values {
		out[key] = value
	}
	return out, nil
}

type CfgxConfigProvider struct {
	Loader RawConfigLoader
}

func NewCfgxConfigProvider(loader RawConfigLoader) *CfgxConfigProvider {
	return &CfgxConfigProvider{Loader: loader}
}

func (p *CfgxConfigProvider) Load(ctx context.Context, defaults Config) (Config, error) {
	if p == nil {
		return defaults, nil
	}
	loader := p.Loader
	if loader == nil {
		loader = staticRawConfigLoader{}
	}
	raw, err := loader.LoadRaw(ctx)
	if err != nil {
		return Config{}, err
	}
	cfg, err := cfgx.Build[Config](raw,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type GoOptionsResolver struct{}

func (GoOptionsResolver) Resolve(defaults Config, loaded Config, runtime Config) (Config, error) {
	defaultLayer := configToLayerMap(defaults, true)
	loadedLayer := configToLayerMap(loaded, false)
	runtimeLayer := configToLayerMap(runtime, false)

	stack, err := opts.NewStack(
		opts.NewLayer(
			opts.NewScope("defaults", 0),
			defaultLayer,
			opts.WithSnapshotID[map[string]any]("defaults"),
		),
		opts.NewLayer(
			opts.NewScope("config", 10),
			loadedLayer,
			opts.WithSnapshotID[map[string]any]("config"),
		),
		opts.NewLayer(
			opts.NewScope("runtime", 20),
			runtimeLayer,
			opts.WithSnapshotID[map[string]any]("runtime"),
		),
	)
	if err != nil {
		return Config{}, fmt.Errorf("core: options stack build failed: %w", err)
	}
	merged, err := stack.Merge()
	if err != nil {
		return Config{}, fmt.Errorf("core: options merge failed: %w", err)
	}
	resolved, err := cfgx.Build[Config](merged.Value,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	if err := resolved.Validate(); err != nil {
		return Config{}, err
	}
	return resolved, nil
}

func configToLayerMap(cfg Config, includeZero bool) map[string]any {
	layer := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.ServiceName) != "" {
		layer["service_name"] = cfg.ServiceName
	}

	backend := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.Backend.BaseURL) != "" {
		backend["base_url"] = cfg.Backend.BaseURL
	}
	if includeZero || strings.TrimSpace(cfg.Backend.PaymentsPath) != "" {
		backend["payments_path"] = cfg.Backend.PaymentsPath
	}
	if includeZero || strings.TrimSpace(cfg.Backend.CallbackURLPrefix) != "" {
		backend["callback_url_prefix"] = cfg.Backend.CallbackURLPrefix
	}
	if includeZero || cfg.Backend.RequestTimeout > 0 {
		backend["request_timeout"] = cfg.Backend.RequestTimeout
	}
	if len(backend) > 0 {
		layer["backend"] = backend
	}

	push := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.Push.URL) != "" {
		push["url"] = cfg.Push.URL
	}
	if includeZero || cfg.Push.BaseReconnectDelay > 0 {
		push["base_reconnect_delay"] = cfg.Push.BaseReconnectDelay
	}
	if includeZero || cfg.Push.MaxReconnectDelay > 0 {
		push["max_reconnect_delay"] = cfg.Push.MaxReconnectDelay
	}
	if includeZero || cfg.Push.MaxReconnectAttempts > 0 {
		push["max_reconnect_attempts"] = cfg.Push.MaxReconnectAttempts
	}
	if len(push) > 0 {
		layer["push"] = push
	}

	sca := map[string]any{}
	if includeZero || cfg.Sca.EntryTTL > 0 {
		sca["entry_ttl"] = cfg.Sca.EntryTTL
	}
	if len(sca) > 0 {
		layer["sca"] = sca
	}
	return layer
}
