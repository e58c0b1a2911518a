package notification

// Member notice kinds.
const (
	KindCreditsDepleted    = "credits_depleted"
	KindMembershipExpiring = "membership_expiring"
)

// noticeTexts is the fixed per-language text table for direct member notices.
var noticeTexts = map[string]map[string]string{
	KindCreditsDepleted: {
		"ko": "수업 크레딧을 모두 사용하셨어요. 재등록을 도와드릴까요?",
		"en": "You have used all your class credits. Shall we help you renew?",
		"ru": "Вы использовали все кредиты занятий. Помочь с продлением?",
		"zh": "您的课程次数已用完, 需要帮您续费吗?",
		"ja": "クラスのクレジットをすべて使い切りました。更新のご案内をしましょうか?",
	},
	KindMembershipExpiring: {
		"ko": "회원권이 오늘 만료됩니다. 계속 수련하시려면 연장해 주세요.",
		"en": "Your membership expires today. Please renew to keep practicing.",
		"ru": "Ваш абонемент истекает сегодня. Продлите его, чтобы продолжить практику.",
		"zh": "您的会员今天到期, 请续费以继续练习。",
		"ja": "会員権は本日で期限切れです。練習を続けるには更新してください。",
	},
}

// NoticeText resolves the text for a notice kind in the given language,
// falling back to Korean.
func NoticeText(kind, language string) string {
	table, ok := noticeTexts[kind]
	if !ok {
		return ""
	}
	if text, ok := table[language]; ok {
		return text
	}
	return table["ko"]
}
