package services

import (
	"strings"

	"github.com/parksyoung/It-Da-sub000/internal/model"
)

const (
	personaKo = `당신은 인간관계 상담가 "잇다"입니다. 사용자의 고민에 따뜻하고 공감하는 말투로, 구체적이고 실천 가능한 조언을 짧게 답하세요.`
	personaEn = `You are "It-Da", a relationship counselor. Answer the user's concern warmly and empathetically with short, concrete, actionable advice.`

	contextHeaderKo = "다음은 참고할 수 있는 전문 지식입니다. 관련이 있을 때만 활용하세요."
	contextHeaderEn = "Reference knowledge you may use when relevant:"

	noContextKo = "참고할 전문 지식이 없습니다. 출처나 연구를 지어내지 말고, 일반적인 공감과 상식에 기반해 답하세요."
	noContextEn = "No reference knowledge is available. Do not invent sources, studies or citations; answer from general empathy and common sense."

	historyHeaderKo = "다음은 사용자와 상대방의 지금까지의 대화 기록입니다. 제출 시점마다 \"---\" 줄로 구분됩니다."
	historyHeaderEn = "The conversation history between the user and the other person so far. Separate submissions are delimited by a \"---\" line."
)

// CounselPrompt assembles the system prompt: persona, retrieved knowledge or
// the no-fabrication rule, then the person's history when present.
func CounselPrompt(retrievedContext, historyText string, lang model.Language) string {
	persona, ctxHeader, noCtx, histHeader := personaKo, contextHeaderKo, noContextKo, historyHeaderKo
	if lang == model.LangEnglish {
		persona, ctxHeader, noCtx, histHeader = personaEn, contextHeaderEn, noContextEn, historyHeaderEn
	}

	var b strings.Builder
	b.WriteString(persona)
	b.WriteString("\n\n")
	if strings.TrimSpace(retrievedContext) == "" {
		b.WriteString(noCtx)
	} else {
		b.WriteString(ctxHeader)
		b.WriteString("\n")
		b.WriteString(retrievedContext)
	}
	if h := strings.TrimSpace(historyText); h != "" {
		b.WriteString("\n\n")
		b.WriteString(histHeader)
		b.WriteString("\n")
		b.WriteString(historyText)
	}
	return b.String()
}

// JoinPassages concatenates passage texts in rank order separated by a blank
// line. Passages without text are skipped.
func JoinPassages(ps []model.Passage) string {
	texts := make([]string, 0, len(ps))
	for _, p := range ps {
		if strings.TrimSpace(p.Text) == "" {
			continue
		}
		texts = append(texts, p.Text)
	}
	return strings.Join(texts, "\n\n")
}
