package cache

// PlanKeyOpts holds the split options that affect a plan.
type PlanKeyOpts struct {
	Threshold  int64  `json:"threshold"`
	PackageKey string `json:"package_key,omitempty"`
}

// RenderKeyOpts holds the options that affect rendered output.
type RenderKeyOpts struct {
	Format   string `json:"format"`
	Detail   bool   `json:"detail,omitempty"`
	Clusters bool   `json:"clusters,omitempty"`
}

// Keyer generates cache keys.
type Keyer interface {
	// PlanKey derives the key of a plan from the content hash of the input
	// document and the split options.
	PlanKey(docHash string, opts PlanKeyOpts) string

	// RenderKey derives the key of a rendering from the content hash of the
	// plan and the render options.
	RenderKey(planHash string, opts RenderKeyOpts) string
}

// DefaultKeyer hashes every key component into a fixed-size key.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// PlanKey implements Keyer.
func (DefaultKeyer) PlanKey(docHash string, opts PlanKeyOpts) string {
	return hashKey("plan", docHash, opts)
}

// RenderKey implements Keyer.
func (DefaultKeyer) RenderKey(planHash string, opts RenderKeyOpts) string {
	return hashKey("render", planHash, opts)
}
