package wheeldto

type Status struct {
	Key  string `json:"key"`
	Text string `json:"text"`
}

type Player struct {
	Name   string `json:"name"`
	Rating int    `json:"rating"`
}

// GameFound announces a newly followed game and how colors map to wheels.
type GameFound struct {
	GameID     string `json:"gameId"`
	White      Player `json:"white"`
	Black      Player `json:"black"`
	LeftColor  string `json:"leftColor"`
	RightColor string `json:"rightColor"`
}

type GameEnded struct {
	GameID string `json:"gameId"`
}

// SideState is one wheel as seen by clients.
type SideState struct {
	Side     string         `json:"side"`
	Color    string         `json:"color"`
	Counts   map[string]int `json:"counts"`
	Total    int            `json:"total"`
	Tokens   []string       `json:"tokens"`
	Spinning bool           `json:"spinning"`
	Rotation float64        `json:"rotation"`
}

type InventoryUpdated struct {
	Sides []SideState `json:"sides"`
}

type SpinEvent struct {
	Side       string  `json:"side"`
	Color      string  `json:"color"`
	SpinID     uint64  `json:"spinId"`
	Angle      float64 `json:"angle,omitempty"`
	Rotation   float64 `json:"rotation"`
	DurationMS int64   `json:"durationMs,omitempty"`
	Index      int     `json:"index,omitempty"`
	Token      string  `json:"token,omitempty"`
	Name       string  `json:"name,omitempty"`
	Glyph      string  `json:"glyph,omitempty"`
}

// State is the full snapshot served to late joiners.
type State struct {
	Monitor string      `json:"monitor"`
	Status  *Status     `json:"status,omitempty"`
	Game    *GameFound  `json:"game,omitempty"`
	Sides   []SideState `json:"sides"`
}
