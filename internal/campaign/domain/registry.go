package domain

// Campaign and template keys for the shipped campaigns. Campaign
// definitions are code-level on purpose; this is not a rule-authoring
// system.
const (
	CampaignReviewRequest = "review_request"
	CampaignWinback       = "winback"

	TemplateReviewRequest = "review_request"
	TemplateWinbackOffer  = "winback_offer"
	TemplateWinbackFinal  = "winback_final"
)

// ShippedCampaigns returns the built-in campaign definitions.
//
// Both win-back steps anchor on order completion with independent windows
// rather than chaining off step 1's send time. Step 2 can therefore fire
// for a customer who was never sent step 1 (consent granted late, for
// example) instead of being blocked forever.
func ShippedCampaigns() []Definition {
	return []Definition{
		{
			Key: CampaignReviewRequest,
			Steps: []StepDefinition{
				{Step: 1, MinDays: 7, MaxDays: 14, TemplateKey: TemplateReviewRequest, Anchor: AnchorOrderCompleted},
			},
		},
		{
			Key: CampaignWinback,
			Steps: []StepDefinition{
				{Step: 1, MinDays: 30, MaxDays: 45, TemplateKey: TemplateWinbackOffer, Anchor: AnchorOrderCompleted},
				{Step: 2, MinDays: 60, MaxDays: 75, TemplateKey: TemplateWinbackFinal, Anchor: AnchorOrderCompleted},
			},
		},
	}
}

// Registry resolves campaign definitions by key.
type Registry struct {
	byKey map[string]Definition
	keys  []string
}

func NewRegistry(defs ...Definition) (*Registry, error) {
	r := &Registry{byKey: make(map[string]Definition, len(defs))}
	for _, def := range defs {
		if err := def.Validate(); err != nil {
			return nil, err
		}
		r.byKey[def.Key] = def
		r.keys = append(r.keys, def.Key)
	}
	return r, nil
}

func (r *Registry) Find(key string) (Definition, error) {
	def, ok := r.byKey[key]
	if !ok {
		return Definition{}, ErrUnknownCampaign
	}
	return def, nil
}

// All returns definitions in registration order.
func (r *Registry) All() []Definition {
	defs := make([]Definition, 0, len(r.keys))
	for _, key := range r.keys {
		defs = append(defs, r.byKey[key])
	}
	return defs
}
