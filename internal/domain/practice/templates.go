package practice

import (
	"strings"

	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/domain/shared"
)

// shiftPlaceholder is substituted with Context.ShiftDetails in the
// PATTERN_SHIFTED templates.
const shiftPlaceholder = "{shift}"

// templates is the fixed member-facing message table.
// Message content is not generated anywhere; this lookup is the whole story.
var templates = map[shared.Language]map[EventType]string{
	shared.LangKorean: {
		FlowMaintained: "꾸준한 수련이 이어지고 있어요!",
		GapDetected:    "다시 돌아오셔서 반가워요!",
		FlowResumed:    "오랜만에 오셨네요. 환영합니다!",
		PatternShifted: "수련 시간대가 {shift}로 변경되었네요.",
	},
	shared.LangEnglish: {
		FlowMaintained: "Your steady practice continues!",
		GapDetected:    "Good to see you back!",
		FlowResumed:    "It has been a while. Welcome back!",
		PatternShifted: "Your practice time has shifted to {shift}.",
	},
	shared.LangRussian: {
		FlowMaintained: "Ваша регулярная практика продолжается!",
		GapDetected:    "Рады видеть вас снова!",
		FlowResumed:    "Давно не виделись. С возвращением!",
		PatternShifted: "Время вашей практики изменилось: {shift}.",
	},
	shared.LangChinese: {
		FlowMaintained: "您的练习一直在坚持!",
		GapDetected:    "欢迎回来!",
		FlowResumed:    "好久不见, 欢迎回来!",
		PatternShifted: "您的练习时段变为{shift}了。",
	},
	shared.LangJapanese: {
		FlowMaintained: "継続的な練習が続いていますね!",
		GapDetected:    "また来てくださって嬉しいです!",
		FlowResumed:    "お久しぶりです。おかえりなさい!",
		PatternShifted: "練習の時間帯が{shift}に変わりましたね。",
	},
}

// defaultMessages is the fallback greeting per language, used when an event
// type has no template entry.
var defaultMessages = map[shared.Language]string{
	shared.LangKorean:   "오늘도 수련을 위해 오셨군요!",
	shared.LangEnglish:  "Here for practice again today!",
	shared.LangRussian:  "Вы снова пришли на практику!",
	shared.LangChinese:  "今天也来练习了!",
	shared.LangJapanese: "今日も練習に来ましたね!",
}

// Message resolves the display message for an event type in the member's
// language. Unknown languages fall back to Korean; unknown event types fall
// back to the default greeting.
func Message(lang shared.Language, eventType EventType, ctx Context) string {
	table, ok := templates[lang]
	if !ok {
		table = templates[shared.DefaultLanguage]
	}

	msg, ok := table[eventType]
	if !ok {
		if def, ok := defaultMessages[lang]; ok {
			return def
		}
		return defaultMessages[shared.DefaultLanguage]
	}

	if strings.Contains(msg, shiftPlaceholder) {
		msg = strings.ReplaceAll(msg, shiftPlaceholder, ctx.ShiftDetails)
	}
	return msg
}
