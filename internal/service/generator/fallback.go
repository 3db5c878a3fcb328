package generator

import (
	"fmt"

	"github.com/MazadiaS/ai-crm-messaging-system/internal/model"
)

var fallbackMessages = map[model.Language]map[model.OccasionType]string{
	model.LanguageRU: {
		model.OccasionBirthday:  "Уважаемый(ая) %s! Поздравляем Вас с Днем рождения! Желаем успехов, здоровья и процветания!",
		model.OccasionNewYear:   "Уважаемый(ая) %s! Поздравляем Вас с Новым годом! Желаем успехов в новом году!",
		model.OccasionHoliday:   "Уважаемый(ая) %s! Поздравляем Вас с праздником!",
		model.OccasionPromotion: "Уважаемый(ая) %s! У нас для Вас специальное предложение!",
		model.OccasionCustom:    "Уважаемый(ая) %s! Благодарим за сотрудничество!",
	},
	model.LanguageEN: {
		model.OccasionBirthday:  "Dear %s! Happy Birthday! Wishing you success, health and prosperity!",
		model.OccasionNewYear:   "Dear %s! Happy New Year! Wishing you success in the new year!",
		model.OccasionHoliday:   "Dear %s! Happy holidays!",
		model.OccasionPromotion: "Dear %s! We have a special offer for you!",
		model.OccasionCustom:    "Dear %s! Thank you for your partnership!",
	},
	model.LanguageUZ: {
		model.OccasionBirthday:  "Hurmatli %s! Tug'ilgan kuningiz bilan! Sizga omad, sog'lik va farovonlik tilaymiz!",
		model.OccasionNewYear:   "Hurmatli %s! Yangi yilingiz bilan! Yangi yilda muvaffaqiyatlar tilaymiz!",
		model.OccasionHoliday:   "Hurmatli %s! Bayramingiz bilan!",
		model.OccasionPromotion: "Hurmatli %s! Siz uchun maxsus taklifimiz bor!",
		model.OccasionCustom:    "Hurmatli %s! Hamkorlik uchun rahmat!",
	},
}

// Fallback returns the fixed localized template for the (language, occasion)
// pair. Unknown languages default to Russian. An unknown occasion yields the
// English partnership-thanks string regardless of language; that asymmetry
// matches the behavior downstream consumers already depend on.
func Fallback(contactName string, occasion model.OccasionType, lang model.Language) string {
	byOccasion, ok := fallbackMessages[lang]
	if !ok {
		byOccasion = fallbackMessages[model.LanguageRU]
	}
	template, ok := byOccasion[occasion]
	if !ok {
		return fmt.Sprintf("Dear %s! Thank you for your partnership!", contactName)
	}
	return fmt.Sprintf(template, contactName)
}
