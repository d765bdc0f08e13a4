// internal/bot/format.go
package bot

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"trivia-bot/internal/models"
)

const (
	dailyTopShown   = 5
	rankingRows     = 20
	namesShownLimit = 12
)

var phrasesStart = []string{
	"🎯 *Instructor GUN4FUN:* ¡Hora de afinar puntería!",
	"🔫 *Instructor GUN4FUN:* Carga, apunta… ¡y dispara a la respuesta!",
	"🎮 *Instructor GUN4FUN:* ¿Listos para la siguiente ronda?",
	"🏹 *Instructor GUN4FUN:* Precisión ante todo. ¡A por ello!",
}

var phrasesEncourage = []string{
	"👉 ¡Participa y sube en el ranking!",
	"💥 ¡Tu acierto puede decidir el top 5 del día!",
	"⚡ Velocidad y puntería marcan la diferencia.",
	"🏆 Cada punto cuenta para las medallas diarias.",
}

var phrasesSummary = []string{
	"📢 *Instructor GUN4FUN:* Gran jornada, equipo.",
	"📝 *Instructor GUN4FUN:* Resumen del día listo.",
	"🎉 *Instructor GUN4FUN:* ¡Buen trabajo! Vamos con el ranking.",
}

var periodLabels = map[models.Period]string{
	models.PeriodDay:   "DIA",
	models.PeriodWeek:  "SEMANA",
	models.PeriodMonth: "MES",
}

// pickPhrase is replaced in tests.
var pickPhrase = func(list []string) string {
	return list[rand.Intn(len(list))]
}

func md(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}

func FormatQuestion(event *models.Event, window time.Duration) string {
	minutes := int(window / time.Minute)
	limit := fmt.Sprintf("%d min", minutes)
	if minutes == 0 {
		limit = fmt.Sprintf("%d s", int(window/time.Second))
	}
	return fmt.Sprintf("%s\n\n🎯 *TRIVIA LIGHT-GUN*\n\n%s\n\n⏱️ Tienes %s.\n%s",
		pickPhrase(phrasesStart),
		md(event.Question),
		limit,
		pickPhrase(phrasesEncourage),
	)
}

func AnswerKeyboard(event *models.Event) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(event.Choices))
	for _, choice := range event.Choices {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(choice, EncodeAnswer(event.ID, choice)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func FormatCloseSummary(s *models.CloseSummary) string {
	var b strings.Builder
	b.WriteString("📊 *Cierre de pregunta*\n")
	fmt.Fprintf(&b, "❓ %s\n", md(s.Question))
	fmt.Fprintf(&b, "🎯 Respuesta: %s\n\n", md(s.Answer))
	fmt.Fprintf(&b, "✅ Aciertos: %d   ❌ Fallos: %d   👀 No contestaron: %d", s.Correct, s.Incorrect, s.NotAnswered)
	if len(s.Winners) > 0 {
		names := make([]string, len(s.Winners))
		for i, w := range s.Winners {
			names[i] = md(w)
		}
		fmt.Fprintf(&b, "\n🏅 Aciertos: %s", strings.Join(names, ", "))
	}
	return b.String()
}

func FormatDailySummary(s *models.DailySummary) string {
	lines := []string{pickPhrase(phrasesSummary), "🏁 *Resumen diario* (ranking del día)"}

	rows := s.Ranking.Rows
	if len(rows) > dailyTopShown {
		rows = rows[:dailyTopShown]
	}
	for i, r := range rows {
		lines = append(lines, fmt.Sprintf("%d. %s — ✅ %d  ❌ %d", i+1, md(models.DisplayName(r.Name, r.UserID)), r.Hits, r.Faults))
	}
	if len(rows) > 0 {
		lines = append(lines, "\n🎉 ¡Enhorabuena a los 5 primeros!")
	}

	if len(s.Awards) > 0 {
		lines = append(lines, "\n🏅 *Medallas/insignias de hoy:*")
		for _, award := range s.Awards {
			names := make([]string, len(award.Badges))
			for i, b := range award.Badges {
				names[i] = b.Name
			}
			lines = append(lines, fmt.Sprintf("• %s: %s", md(award.Name), strings.Join(names, ", ")))
		}
	}

	lines = append(lines, fmt.Sprintf("\n👀 No participaron hoy: %d", len(s.Ranking.NonParticipants)))
	if len(s.Ranking.NonParticipants) > 0 {
		lines = append(lines, md(formatNames(s.Ranking.NonParticipants, namesShownLimit)))
	}
	lines = append(lines, "\n👉 Mañana hay más preguntas. ¡Únete y suma puntos!")
	return strings.Join(lines, "\n")
}

// FormatRanking renders the plain text reply to the ranking command.
func FormatRanking(r *models.Ranking) string {
	lines := []string{fmt.Sprintf("📈 RANKING %s", periodLabels[r.Period])}
	rows := r.Rows
	if len(rows) > rankingRows {
		rows = rows[:rankingRows]
	}
	for i, row := range rows {
		lines = append(lines, fmt.Sprintf("%2d. %s — ✅ %d  ❌ %d", i+1, models.DisplayName(row.Name, row.UserID), row.Hits, row.Faults))
	}
	lines = append(lines, "", fmt.Sprintf("👀 No contestaron: %d", len(r.NonParticipants)))
	lines = append(lines, formatNames(r.NonParticipants, namesShownLimit))
	return strings.Join(lines, "\n")
}

// formatNames joins display names, showing at most limit followed by the
// number left out.
func formatNames(entries []models.RosterEntry, limit int) string {
	if len(entries) == 0 {
		return "—"
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = models.DisplayName(e.Name, e.UserID)
	}
	if len(names) > limit {
		return strings.Join(names[:limit], ", ") + fmt.Sprintf(" … (+%d)", len(names)-limit)
	}
	return strings.Join(names, ", ")
}

func helpText(slots []string, summaryAt string) string {
	return fmt.Sprintf("🎯 GUN4FUN Trivia Light-Gun\n\n"+
		"Lanzamos %d preguntas al día (%s) y un resumen a las %s.\n"+
		"Comandos:\n• /ranking [dia|semana|mes]\n• /pregunta_ahora (prueba)\n• /stop (pausar la trivia)\n\n"+
		"¡Participa para subir en el ranking!",
		len(slots), strings.Join(slots, ", "), summaryAt)
}

func outcomeText(o models.AnswerOutcome) string {
	switch o {
	case models.OutcomeCorrect:
		return "✅ ¡Correcto!"
	case models.OutcomeIncorrect:
		return "❌ Incorrecto"
	case models.OutcomeDuplicate:
		return "Ya respondiste esta pregunta."
	case models.OutcomeExpired:
		return "⏱️ Fuera de tiempo."
	default:
		return "Evento no encontrado."
	}
}
