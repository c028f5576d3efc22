package tts

import "aiplus-tts/internal/rpc"

// Status - состояние протокола TTS сессии
type Status string

const (
	StatusIdle         Status = "idle"
	StatusSessionBegin Status = "sessionBegin"
	StatusTextWrite    Status = "textWrite"
	StatusGetResult    Status = "getResult"
	StatusSessionEnd   Status = "sessionEnd"
)

// Cmd возвращает значение поля cmd для запроса, отправляемого в этом состоянии
func (s Status) Cmd() string {
	switch s {
	case StatusSessionBegin:
		return rpc.CmdSessionBegin
	case StatusTextWrite:
		return rpc.CmdTextWrite
	case StatusGetResult:
		return rpc.CmdGetResult
	case StatusSessionEnd:
		return rpc.CmdSessionEnd
	default:
		return ""
	}
}

// terminating сообщает, что сессия уже закрывается или закрыта
func (s Status) terminating() bool {
	return s == StatusSessionEnd || s == StatusIdle
}

func (s Status) String() string {
	return string(s)
}
