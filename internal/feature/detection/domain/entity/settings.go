package entity

// Method and strategy names registered by default.
const (
	MethodReverseImageSearch = "reverse_image_search"
	MethodTitleAnalysis      = "title_analysis"

	StrategyMajority  = "majority"
	StrategyStrict    = "strict"
	StrategyUnanimous = "unanimous"
)

const (
	DefaultRegionLimit      = 3
	DefaultResultsPerRegion = 10
)

// MethodConfig is the free-form configuration passed to a single detection method.
type MethodConfig map[string]any

// Int returns the integer value stored under key, or def when missing or not numeric.
func (c MethodConfig) Int(key string, def int) int {
	switch v := c[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return def
	}
}

// Float returns the float value stored under key, or def.
func (c MethodConfig) Float(key string, def float64) float64 {
	switch v := c[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return def
	}
}

// String returns the string value stored under key, or def.
func (c MethodConfig) String(key, def string) string {
	if v, ok := c[key].(string); ok && v != "" {
		return v
	}
	return def
}

// DetectionSettings selects methods and the decision strategy for one check.
type DetectionSettings struct {
	DetectionMethods []string                `json:"detection_methods"`
	MethodSettings   map[string]MethodConfig `json:"methods_settings,omitempty"`
	DecisionStrategy string                  `json:"decision_strategy"`
	BypassCache      bool                    `json:"bypass_cache"`
	RegionLimit      int                     `json:"region_limit"`
	ResultsPerRegion int                     `json:"results_per_region"`
}

// DefaultSettings returns the settings used for identities without stored settings.
func DefaultSettings() DetectionSettings {
	return DetectionSettings{
		DetectionMethods: []string{MethodReverseImageSearch},
		DecisionStrategy: StrategyMajority,
		RegionLimit:      DefaultRegionLimit,
		ResultsPerRegion: DefaultResultsPerRegion,
	}
}

// Normalize collapses duplicate method names keeping the first occurrence
// and fills zero values with defaults.
func (s DetectionSettings) Normalize() DetectionSettings {
	seen := make(map[string]struct{}, len(s.DetectionMethods))
	methods := make([]string, 0, len(s.DetectionMethods))
	for _, m := range s.DetectionMethods {
		if m == "" {
			continue
		}
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		methods = append(methods, m)
	}
	s.DetectionMethods = methods
	if len(s.DetectionMethods) == 0 {
		s.DetectionMethods = []string{MethodReverseImageSearch}
	}
	if s.DecisionStrategy == "" {
		s.DecisionStrategy = StrategyMajority
	}
	if s.RegionLimit <= 0 {
		s.RegionLimit = DefaultRegionLimit
	}
	if s.ResultsPerRegion <= 0 {
		s.ResultsPerRegion = DefaultResultsPerRegion
	}
	return s
}

// ConfigFor returns the configuration of method, never nil.
func (s DetectionSettings) ConfigFor(method string) MethodConfig {
	if c, ok := s.MethodSettings[method]; ok && c != nil {
		return c
	}
	return MethodConfig{}
}
