package outreach

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/customeros/cardstack/dto"
	"github.com/customeros/cardstack/internal/models"
	"github.com/customeros/cardstack/internal/utils"
	"github.com/customeros/cardstack/services/ai"
)

const (
	rewriteSystemInstruction = "You are a professional business assistant. Output only raw JSON."
	englishDirective         = "IMPORTANT: Write the entire email in English. Please also translate/transliterate names and company names into English (Latin alphabet)."
)

const initialEmailTemplate = `あなたはプロの営業担当です。以下の情報を元に、名刺交換のお礼メールの件名と本文を作成してください。

【差出人情報（あなた）】
会社名: %s
氏名: %s
事業概要: %s

【相手の情報】
会社名: %s
氏名: %s
相手企業の事業概要: %s

【出力ルール】
- 以下のJSON形式のみを出力してください。
{
    "subject": "件名",
    "body": "メール本文"
}
`

const rewriteEmailTemplate = `あなたはプロの営業担当です。
以下の【現在のメール案】を、【追加指示】に基づいて書き直してください。
%s

【差出人情報（あなた）】
会社名: %s
役職: %s
氏名: %s
電話: %s
Email: %s

【相手の情報】
会社名: %s
役職: %s
氏名: %s 様

【現在のメール案】
%s

【作成依頼の追加指示】
%s

【出力ルール】
- 以下のJSON形式のみを出力してください。
{
    "subject": "件名（AIが指示に合わせて最適化）",
    "body": "メール本文（会社名と名前から開始し、署名まで含む）"
}
- 本文の冒頭は会社名と氏名（および様）から開始し、適切に改行を入れること。
`

func orDefault(value, fallback string) string {
	if utils.IsBlank(value) {
		return fallback
	}
	return strings.TrimSpace(value)
}

// senderContext is shared by every record of a batch.
type senderContext struct {
	company  string
	name     string
	summary  string
	jobTitle string
	phone    string
	email    string
}

func newSenderContext(profile *models.TenantProfile) senderContext {
	return senderContext{
		company:  orDefault(profile.CompanyName, "（会社名未設定）"),
		name:     orDefault(profile.DisplayName, "（氏名未設定）"),
		summary:  orDefault(profile.BusinessSummary, "営業支援"),
		jobTitle: strings.TrimSpace(profile.JobTitle),
		phone:    strings.TrimSpace(profile.PhoneNumber),
		email:    strings.TrimSpace(profile.EmailAddress),
	}
}

func initialEmailPrompt(sender senderContext, contact *models.Contact, webInfo string) string {
	return fmt.Sprintf(initialEmailTemplate,
		sender.company,
		sender.name,
		sender.summary,
		orDefault(contact.CompanyName, "貴社"),
		orDefault(contact.PersonName, "担当者"),
		webInfo,
	)
}

func isEnglishInstruction(instruction string) bool {
	lowered := strings.ToLower(instruction)
	return strings.Contains(lowered, "英語") || strings.Contains(lowered, "english")
}

func rewriteEmailPrompt(sender senderContext, request dto.RewriteRequest) string {
	directive := ""
	if isEnglishInstruction(request.Instruction) {
		directive = englishDirective
	}
	return fmt.Sprintf(rewriteEmailTemplate,
		directive,
		sender.company,
		sender.jobTitle,
		sender.name,
		sender.phone,
		sender.email,
		orDefault(request.CustomerInfo.Company, "貴社"),
		strings.TrimSpace(request.CustomerInfo.Title),
		orDefault(request.CustomerInfo.Name, "担当者"),
		request.CurrentBody,
		request.Instruction,
	)
}

// parseGeneratedMessage accepts a JSON object or a JSON string that itself encodes the object.
func parseGeneratedMessage(text string) (*dto.GeneratedMessage, error) {
	payload := []byte(ai.ExtractJSON(text))

	var quoted string
	if err := json.Unmarshal(payload, &quoted); err == nil {
		payload = []byte(ai.ExtractJSON(quoted))
	}

	var message dto.GeneratedMessage
	if err := json.Unmarshal(payload, &message); err != nil {
		return nil, errors.Wrap(err, "generated content is not valid JSON")
	}
	message.Subject = strings.TrimSpace(message.Subject)
	message.Body = strings.TrimSpace(message.Body)
	if message.Subject == "" || message.Body == "" {
		return nil, errors.New("generated content is missing subject or body")
	}
	return &message, nil
}
