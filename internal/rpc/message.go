package rpc

import (
	"encoding/json"
	"strconv"
)

// Константы конверта запроса. Для корреляции не используются:
// в сессии одновременно ожидается только один ответ.
const (
	RequestID  = 1
	Version    = "2.0"
	Method     = "deal_request"
	ServiceTag = "tts"

	CmdSessionBegin = "ssb"
	CmdTextWrite    = "txtw"
	CmdGetResult    = "grs"
	CmdSessionEnd   = "sse"

	// TTSStatusDone - значение ttsStatus, когда синтез завершен
	TTSStatusDone = 0
)

// Request представляет конверт RPC запроса
type Request struct {
	ID      int    `json:"id"`
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  Params `json:"params"`
}

// Params содержит параметры одного из вариантов запроса (ssb, txtw, grs, sse)
type Params struct {
	Cmd          string `json:"cmd"`
	Svc          string `json:"svc"`
	SyncID       string `json:"syncid"`
	SID          string `json:"sid,omitempty"`
	AuthID       string `json:"auth_id,omitempty"`
	AppID        string `json:"appid,omitempty"`
	ExtendParams string `json:"extend_params,omitempty"`
	Data         string `json:"data,omitempty"`

	// Extra - параметры сессии, которые добавляются на верхний уровень params
	Extra map[string]string `json:"-"`
}

// Credentials содержит параметры подключения, общие для всех запросов сессии
type Credentials struct {
	AuthID       string
	AppID        string
	ExtendParams string
}

// NewRequest оборачивает параметры в конверт запроса
func NewRequest(p Params) Request {
	return Request{
		ID:      RequestID,
		JSONRPC: Version,
		Method:  Method,
		Params:  p,
	}
}

// FormatSyncID переводит счетчик синхронизации в строку для поля syncid
func FormatSyncID(counter int64) string {
	return strconv.FormatInt(counter, 10)
}

// SessionBeginParams строит параметры запроса начала сессии
func SessionBeginParams(creds Credentials, extra map[string]string, syncID string) Params {
	return Params{
		Cmd:          CmdSessionBegin,
		Svc:          ServiceTag,
		SyncID:       syncID,
		AuthID:       creds.AuthID,
		AppID:        creds.AppID,
		ExtendParams: creds.ExtendParams,
		Extra:        extra,
	}
}

// TextWriteParams строит параметры запроса записи текста; data уже в base64
func TextWriteParams(creds Credentials, sid, syncID, data string) Params {
	return Params{
		Cmd:          CmdTextWrite,
		Svc:          ServiceTag,
		SyncID:       syncID,
		SID:          sid,
		AppID:        creds.AppID,
		ExtendParams: creds.ExtendParams,
		Data:         data,
	}
}

// GetResultParams строит параметры запроса получения результата
func GetResultParams(creds Credentials, sid, syncID string) Params {
	return Params{
		Cmd:          CmdGetResult,
		Svc:          ServiceTag,
		SyncID:       syncID,
		SID:          sid,
		AppID:        creds.AppID,
		ExtendParams: creds.ExtendParams,
	}
}

// SessionEndParams строит параметры запроса завершения сессии
func SessionEndParams(creds Credentials, sid, syncID string) Params {
	return Params{
		Cmd:          CmdSessionEnd,
		Svc:          ServiceTag,
		SyncID:       syncID,
		SID:          sid,
		AuthID:       creds.AuthID,
		AppID:        creds.AppID,
		ExtendParams: creds.ExtendParams,
	}
}

// MarshalJSON добавляет Extra на верхний уровень, не перезаписывая основные поля
func (p Params) MarshalJSON() ([]byte, error) {
	type plain Params
	base, err := json.Marshal(plain(p))
	if err != nil {
		return nil, err
	}
	if len(p.Extra) == 0 {
		return base, nil
	}

	merged := make(map[string]any, len(p.Extra)+8)
	for k, v := range p.Extra {
		merged[k] = v
	}
	var fields map[string]any
	if err := json.Unmarshal(base, &fields); err != nil {
		return nil, err
	}
	for k, v := range fields {
		merged[k] = v
	}
	return json.Marshal(merged)
}

// Response представляет конверт RPC ответа
type Response struct {
	Result *Result `json:"result,omitempty"`
}

// Result содержит поля ответа для всех вариантов запроса
type Result struct {
	Ret  int    `json:"ret"`
	SID  string `json:"sid,omitempty"`
	Data string `json:"data,omitempty"`
	// TTSStatus: 0 - синтез завершен, иначе ожидаются еще данные.
	// Отсутствие поля трактуется как "еще не завершен".
	TTSStatus *int `json:"ttsStatus,omitempty"`
}

// Completed сообщает, что сервер закончил синтез
func (r *Result) Completed() bool {
	return r.TTSStatus != nil && *r.TTSStatus == TTSStatusDone
}
