package practice

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/domain/shared"
)

func TestMessageKorean(t *testing.T) {
	assert.Equal(t, "꾸준한 수련이 이어지고 있어요!", Message(shared.LangKorean, FlowMaintained, Context{}))
	assert.Equal(t, "다시 돌아오셔서 반가워요!", Message(shared.LangKorean, GapDetected, Context{}))
	assert.Equal(t, "오랜만에 오셨네요. 환영합니다!", Message(shared.LangKorean, FlowResumed, Context{}))
}

func TestMessageShiftSubstitution(t *testing.T) {
	ctx := Context{ShiftDetails: "morning → evening"}

	assert.Equal(t, "수련 시간대가 morning → evening로 변경되었네요.", Message(shared.LangKorean, PatternShifted, ctx))
	assert.Equal(t, "Your practice time has shifted to morning → evening.", Message(shared.LangEnglish, PatternShifted, ctx))
}

func TestMessageAllLanguagesCovered(t *testing.T) {
	langs := []shared.Language{
		shared.LangKorean, shared.LangEnglish, shared.LangRussian,
		shared.LangChinese, shared.LangJapanese,
	}
	types := []EventType{FlowMaintained, GapDetected, FlowResumed, PatternShifted}

	for _, lang := range langs {
		for _, eventType := range types {
			msg := Message(lang, eventType, Context{ShiftDetails: "x"})
			assert.NotEmpty(t, msg, "language %s type %s", lang, eventType)
		}
	}
}

func TestMessageUnknownLanguageFallsBackToKorean(t *testing.T) {
	assert.Equal(t, "꾸준한 수련이 이어지고 있어요!", Message(shared.Language("fr"), FlowMaintained, Context{}))
}

func TestMessageUnknownTypeUsesDefault(t *testing.T) {
	assert.Equal(t, "오늘도 수련을 위해 오셨군요!", Message(shared.LangKorean, EventType("MILESTONE"), Context{}))
	assert.Equal(t, "Here for practice again today!", Message(shared.LangEnglish, EventType("MILESTONE"), Context{}))
}
