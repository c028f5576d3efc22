package tts

import (
	"encoding/base64"
	"fmt"

	"aiplus-tts/internal/rpc"
)

// Step описывает решение функции переходов для одного проверенного ответа
type Step struct {
	// Next - следующее состояние; если Done == false, в этом состоянии отправляется следующий запрос
	Next Status
	// SessionID - идентификатор сессии из ответа на ssb
	SessionID string
	// Audio - декодированный фрагмент аудио из ответа на grs
	Audio []byte
	// Done - сессия вернулась в idle
	Done bool
}

// Validate проверяет конверт ответа одинаково для всех состояний
func Validate(resp *rpc.Response) (*rpc.Result, error) {
	if resp == nil || resp.Result == nil {
		return nil, rpc.NewError(rpc.KindNoResponse, resp)
	}
	if resp.Result.Ret != 0 {
		return nil, rpc.NewError(rpc.KindResponseError, resp)
	}
	return resp.Result, nil
}

// Transition решает, что делать с ответом на запрос, отправленный в состоянии status.
// Функция чистая: не меняет сессию и ничего не отправляет.
func Transition(status Status, resp *rpc.Response) (Step, error) {
	result, err := Validate(resp)
	if err != nil {
		return Step{}, err
	}

	switch status {
	case StatusSessionBegin:
		return Step{Next: StatusTextWrite, SessionID: result.SID}, nil

	case StatusTextWrite:
		return Step{Next: StatusGetResult}, nil

	case StatusGetResult:
		step := Step{Next: StatusGetResult}
		if result.Data != "" {
			chunk, err := base64.StdEncoding.DecodeString(result.Data)
			if err != nil {
				return Step{}, rpc.NewError(rpc.KindResponseError, fmt.Errorf("некорректные аудио данные: %w", err))
			}
			step.Audio = chunk
		}
		if result.Completed() {
			step.Next = StatusSessionEnd
		}
		return step, nil

	case StatusSessionEnd:
		return Step{Next: StatusIdle, Done: true}, nil

	default:
		return Step{Next: StatusIdle, Done: true}, nil
	}
}
