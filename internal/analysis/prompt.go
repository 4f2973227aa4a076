package analysis

import (
	"fmt"

	"github.com/parksyoung/It-Da-sub000/internal/model"
)

var modeFocus = map[model.RelationshipMode]map[model.Language]string{
	model.ModeWork: {
		model.LangKorean:  "업무 관계입니다. 협업, 소통의 명확성, 예의와 신뢰에 초점을 맞추세요.",
		model.LangEnglish: "This is a work relationship. Focus on collaboration, clarity of communication, courtesy and trust.",
	},
	model.ModeRomance: {
		model.LangKorean:  "연인 또는 썸 관계입니다. 애정 표현, 관심의 균형, 감정적 친밀감에 초점을 맞추세요.",
		model.LangEnglish: "This is a romantic relationship. Focus on affection, balance of attention and emotional closeness.",
	},
	model.ModeFriend: {
		model.LangKorean:  "친구 관계입니다. 편안함, 유머, 상호 지지에 초점을 맞추세요.",
		model.LangEnglish: "This is a friendship. Focus on ease, humor and mutual support.",
	},
	model.ModeOther: {
		model.LangKorean:  "일반적인 인간관계입니다. 상호 존중과 소통의 흐름에 초점을 맞추세요.",
		model.LangEnglish: "This is a general relationship. Focus on mutual respect and the flow of communication.",
	},
}

// Instructions builds the system instructions for a mode and language.
func Instructions(mode model.RelationshipMode, lang model.Language) string {
	focus, ok := modeFocus[mode]
	if !ok {
		focus = modeFocus[model.ModeOther]
	}
	langName := "Korean"
	if lang == model.LangEnglish {
		langName = "English"
	}
	return fmt.Sprintf(`You analyze chat transcripts between the user ("me") and one other person ("partner").
Transcripts submitted at different times are separated by a line containing only "---"; treat them as one continuous history in order.
%s
Return JSON only, matching the schema:
- intimacyScore: integer 0-100.
- balanceRatio: share of conversational effort, me and partner, each 0-100, summing to 100.
- sentiment: positive/negative/neutral percentages 0-100.
- avgResponseTime: average reply delay in minutes for me and partner; null when timestamps are missing.
- sentimentFlow: 20 points ordered by time_percentage (0-100) with sentiment_score in [-1, 1].
- responseHeatmap: exactly 24 non-negative message counts, index = hour of day.
- suggestedReplies and suggestedTopics: 2-3 items each.
Write summary, recommendation, suggestedReplies and suggestedTopics in %s.`, focus[lang], langName)
}
