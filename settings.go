package r2r

import (
	"maps"

	"github.com/kailas-cloud/r2r/internal/payload"
)

// DefaultSearchLimit is used when SearchOptions.Limit is not positive.
const DefaultSearchLimit = 10

// GenerationConfig holds LLM generation parameters. Nil fields are not sent.
type GenerationConfig = payload.GenerationConfig

// VectorSearchSettings is the resolved vector search configuration.
type VectorSearchSettings = payload.VectorSearchSettings

// KGSearchSettings is the resolved knowledge-graph search configuration.
type KGSearchSettings = payload.KGSearchSettings

// SearchOptions are the caller-facing, partially specified search settings.
// The zero value searches by vector with no filters and DefaultSearchLimit.
type SearchOptions struct {
	// UseVectorSearch defaults to true when nil. An explicit false disables it.
	UseVectorSearch *bool
	Filters         map[string]any
	Limit           int
	Hybrid          bool

	UseKGSearch bool
	// KGGenerationConfig is sent as null when nil.
	KGGenerationConfig *GenerationConfig
}

// Resolve fills defaults and returns complete settings. The result shares
// no maps with o.
func (o SearchOptions) Resolve() (VectorSearchSettings, KGSearchSettings) {
	useVector := true
	if o.UseVectorSearch != nil {
		useVector = *o.UseVectorSearch
	}

	filters := map[string]any{}
	if o.Filters != nil {
		filters = maps.Clone(o.Filters)
	}

	limit := o.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	var kgCfg *GenerationConfig
	if o.KGGenerationConfig != nil {
		cp := *o.KGGenerationConfig
		kgCfg = &cp
	}

	return VectorSearchSettings{
			UseVectorSearch: useVector,
			SearchFilters:   filters,
			SearchLimit:     limit,
			DoHybridSearch:  o.Hybrid,
		}, KGSearchSettings{
			UseKGSearch:           o.UseKGSearch,
			AgentGenerationConfig: kgCfg,
		}
}

// DefaultGenerationConfig returns a fresh copy of the default generation
// parameters. It is not applied implicitly; merge it with MergeGenerationConfig.
func DefaultGenerationConfig() GenerationConfig {
	return GenerationConfig{
		Temperature:       Ptr(0.1),
		TopP:              Ptr(1.0),
		TopK:              Ptr(100),
		MaxTokensToSample: Ptr(1024),
		Model:             "gpt-4o",
		Stream:            Ptr(true),
	}
}

// MergeGenerationConfig returns cfg with every unset field taken from base.
func MergeGenerationConfig(cfg, base GenerationConfig) GenerationConfig {
	out := cfg
	if out.Temperature == nil {
		out.Temperature = base.Temperature
	}
	if out.TopP == nil {
		out.TopP = base.TopP
	}
	if out.TopK == nil {
		out.TopK = base.TopK
	}
	if out.MaxTokensToSample == nil {
		out.MaxTokensToSample = base.MaxTokensToSample
	}
	if out.Model == "" {
		out.Model = base.Model
	}
	if out.Stream == nil {
		out.Stream = base.Stream
	}
	if out.Functions == nil {
		out.Functions = base.Functions
	}
	if out.SkipSpecialTokens == nil {
		out.SkipSpecialTokens = base.SkipSpecialTokens
	}
	if out.StopToken == nil {
		out.StopToken = base.StopToken
	}
	if out.NumBeams == nil {
		out.NumBeams = base.NumBeams
	}
	if out.DoSample == nil {
		out.DoSample = base.DoSample
	}
	if out.GenerateWithChat == nil {
		out.GenerateWithChat = base.GenerateWithChat
	}
	if out.AddGenerationKwargs == nil {
		out.AddGenerationKwargs = base.AddGenerationKwargs
	}
	if out.APIBase == "" {
		out.APIBase = base.APIBase
	}
	return out
}

// Ptr returns a pointer to v. Handy for optional GenerationConfig fields.
func Ptr[T any](v T) *T { return &v }
