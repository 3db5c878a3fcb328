package generator

import (
	"fmt"
	"strings"

	"github.com/MazadiaS/ai-crm-messaging-system/internal/model"
)

const DefaultTone = "professional_friendly"

var systemPrompts = map[model.Language]string{
	model.LanguageRU: `Ты - профессиональный копирайтер, специализирующийся на создании персонализированных поздравительных сообщений для CRM-системы.

Твоя задача - создавать теплые, искренние и персонализированные сообщения, которые:
- Звучат естественно и человечно, не как автоматически сгенерированный текст
- Учитывают контекст и особенности получателя
- Соответствуют выбранному тону общения
- Подходят для делового общения, но остаются дружелюбными
- Не содержат клише и банальных фраз
- Имеют оптимальную длину (2-4 предложения)

Используй правильное обращение и учитывай культурный контекст.`,

	model.LanguageEN: `You are a professional copywriter specializing in creating personalized greeting messages for CRM systems.

Your task is to create warm, sincere, and personalized messages that:
- Sound natural and human, not like auto-generated text
- Consider the context and characteristics of the recipient
- Match the chosen tone of communication
- Are suitable for business communication while remaining friendly
- Avoid clichés and banal phrases
- Have an optimal length (2-4 sentences)

Use appropriate salutations and consider cultural context.`,

	model.LanguageUZ: `Siz CRM tizimlari uchun shaxsiylashtirilgan tabrik xabarlarini yaratishga ixtisoslashgan professional kopyraytersiz.

Sizning vazifangiz issiq, samimiy va shaxsiylashtirilgan xabarlar yaratish:
- Tabiiy va insoniy eshitiladi, avtomatik yaratilgan matn kabi emas
- Qabul qiluvchining konteksti va xususiyatlarini hisobga oladi
- Tanlangan muloqot ohangiga mos keladi
- Biznes muloqotiga mos, ammo do'stona bo'lib qoladi
- Klişe va oddiy iboralardan qochadi
- Optimal uzunlikka ega (2-4 jumla)

To'g'ri murojaat qiling va madaniy kontekstni hisobga oling.`,
}

var occasionDescriptions = map[model.OccasionType]map[model.Language]string{
	model.OccasionBirthday: {
		model.LanguageRU: "день рождения",
		model.LanguageEN: "birthday",
		model.LanguageUZ: "tug'ilgan kun",
	},
	model.OccasionNewYear: {
		model.LanguageRU: "Новый год",
		model.LanguageEN: "New Year",
		model.LanguageUZ: "Yangi yil",
	},
	model.OccasionHoliday: {
		model.LanguageRU: "праздник",
		model.LanguageEN: "holiday",
		model.LanguageUZ: "bayram",
	},
	model.OccasionPromotion: {
		model.LanguageRU: "специальное предложение",
		model.LanguageEN: "special offer",
		model.LanguageUZ: "maxsus taklif",
	},
	model.OccasionCustom: {
		model.LanguageRU: "особый случай",
		model.LanguageEN: "special occasion",
		model.LanguageUZ: "maxsus holat",
	},
}

var toneDescriptions = map[string]map[model.Language]string{
	"professional_friendly": {
		model.LanguageRU: "профессионально-дружелюбный",
		model.LanguageEN: "professional-friendly",
		model.LanguageUZ: "professional-do'stona",
	},
	"formal": {
		model.LanguageRU: "формальный",
		model.LanguageEN: "formal",
		model.LanguageUZ: "rasmiy",
	},
	"casual": {
		model.LanguageRU: "неформальный",
		model.LanguageEN: "casual",
		model.LanguageUZ: "norasmiy",
	},
	"warm": {
		model.LanguageRU: "теплый",
		model.LanguageEN: "warm",
		model.LanguageUZ: "issiq",
	},
}

// normalizeLanguage maps unsupported language codes to Russian.
func normalizeLanguage(lang model.Language) model.Language {
	if !lang.Valid() {
		return model.LanguageRU
	}
	return lang
}

func systemPrompt(lang model.Language) string {
	return systemPrompts[normalizeLanguage(lang)]
}

// buildMessagePrompt assembles the user prompt for one contact/occasion
// pair. The occasion must be one of the declared types; unknown tones fall
// back to the professional-friendly localization.
func buildMessagePrompt(contact *model.Contact, occasion model.OccasionType, customContext *string, tone string) (string, error) {
	lang := normalizeLanguage(contact.Language)

	occasionByLang, ok := occasionDescriptions[occasion]
	if !ok {
		return "", fmt.Errorf("unknown occasion type: %s", occasion)
	}
	occasionText := occasionByLang[lang]

	toneByLang, ok := toneDescriptions[tone]
	if !ok {
		toneByLang = toneDescriptions[DefaultTone]
	}
	toneText := toneByLang[lang]

	contextParts := []string{"Имя: " + contact.Name}
	if contact.Company != nil && *contact.Company != "" {
		contextParts = append(contextParts, "Компания: "+*contact.Company)
	}
	if contact.Position != nil && *contact.Position != "" {
		contextParts = append(contextParts, "Должность: "+*contact.Position)
	}
	contactContext := strings.Join(contextParts, "\n")

	var b strings.Builder
	switch lang {
	case model.LanguageRU:
		fmt.Fprintf(&b, "<contact>\n%s\n</contact>\n\n<task>\nСоздай персонализированное поздравительное сообщение по случаю: %s\nТон сообщения: %s\n</task>", contactContext, occasionText, toneText)
	case model.LanguageEN:
		fmt.Fprintf(&b, "<contact>\n%s\n</contact>\n\n<task>\nCreate a personalized greeting message for: %s\nMessage tone: %s\n</task>", contactContext, occasionText, toneText)
	default:
		fmt.Fprintf(&b, "<contact>\n%s\n</contact>\n\n<task>\nQuyidagi holat uchun shaxsiylashtirilgan tabrik xabari yarating: %s\nXabar ohangi: %s\n</task>", contactContext, occasionText, toneText)
	}

	if customContext != nil && *customContext != "" {
		switch lang {
		case model.LanguageRU:
			fmt.Fprintf(&b, "\n\n<additional_context>\nДополнительный контекст: %s\n</additional_context>", *customContext)
		case model.LanguageEN:
			fmt.Fprintf(&b, "\n\n<additional_context>\nAdditional context: %s\n</additional_context>", *customContext)
		default:
			fmt.Fprintf(&b, "\n\n<additional_context>\nQo'shimcha kontekst: %s\n</additional_context>", *customContext)
		}
	}

	switch lang {
	case model.LanguageRU:
		b.WriteString("\n\n<instructions>\nНапиши только текст сообщения, без каких-либо дополнительных пояснений или форматирования. Сообщение должно быть готово к отправке как есть.\n</instructions>")
	case model.LanguageEN:
		b.WriteString("\n\n<instructions>\nWrite only the message text, without any additional explanations or formatting. The message should be ready to send as is.\n</instructions>")
	default:
		b.WriteString("\n\n<instructions>\nFaqat xabar matnini yozing, hech qanday qo'shimcha tushuntirishlar yoki formatlash bo'lmasa. Xabar shunday holda yuborishga tayyor bo'lishi kerak.\n</instructions>")
	}

	return b.String(), nil
}
