package enum

type DispatchState string

const (
	DispatchPending    DispatchState = "pending"
	DispatchGenerating DispatchState = "generating"
	DispatchGenerated  DispatchState = "generated"
	DispatchSending    DispatchState = "sending"
	DispatchRecorded   DispatchState = "recorded"
	DispatchSkipped    DispatchState = "skipped"
	DispatchFailed     DispatchState = "failed"
)

func (s DispatchState) String() string {
	return string(s)
}

func (s DispatchState) IsTerminal() bool {
	return s == DispatchRecorded || s == DispatchSkipped || s == DispatchFailed
}

type AIEngine string

const (
	AIEngineAzure  AIEngine = "azure"
	AIEngineGemini AIEngine = "gemini"
)

func (e AIEngine) String() string {
	return string(e)
}
