package hue

// GroupState represents the state of a Hue group (v1 API)
type GroupState struct {
	AllOn bool `json:"all_on"`
	AnyOn bool `json:"any_on"`
}

// Group represents a Hue group (v1 API)
type Group struct {
	ID     string     `json:"id"`
	Name   string     `json:"name"`
	Lights []string   `json:"lights"`
	Type   string     `json:"type"`
	State  GroupState `json:"state"`
}

// Result is one entry of a v1 API write response.
type Result struct {
	Success map[string]any `json:"success,omitempty"`
	Error   *struct {
		Type        int    `json:"type"`
		Address     string `json:"address"`
		Description string `json:"description"`
	} `json:"error,omitempty"`
}
