package presenter

const (
	TextRunning  = "¡BINGO EN CURSO!"
	TextPaused   = "BINGO PAUSADO. Revisando cartones..."
	TextFinished = "Fin"

	LabelStart  = "Iniciar Bingo"
	LabelResume = "Continuar Bingo"
)

const (
	EventBallDrawn     = "ball:drawn"
	EventStateChanged  = "state:changed"
	EventGameFinished  = "game:finished"
	EventGameEnded     = "game:ended"
	EventGameRestarted = "game:restarted"
	EventView          = "view"
)

// Event is one view change pushed to the browsers.
type Event struct {
	Type   string `json:"type"`
	Number int    `json:"number,omitempty"`
	Audio  string `json:"audio,omitempty"`
	View   View   `json:"view"`
}

type Cell struct {
	Number int  `json:"number"`
	Drawn  bool `json:"drawn"`
}

type Controls struct {
	StartDisabled bool   `json:"start_disabled"`
	PauseDisabled bool   `json:"pause_disabled"`
	SpeedLocked   bool   `json:"speed_locked"`
	StartLabel    string `json:"start_label"`
}

type View struct {
	State        string   `json:"state"`
	Cells        []Cell   `json:"cells"`
	History      []int    `json:"history"`
	Last         int      `json:"last,omitempty"`
	Result       string   `json:"result"`
	SpeedSeconds int      `json:"speed_seconds"`
	Controls     Controls `json:"controls"`
}
