package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"baccarat-ledger/internal/bus"
	"baccarat-ledger/internal/domain"
)

const (
	relayHeader       = "📨 **Message du canal:**"
	relayEditedHeader = "📨 **Message du canal (✏️ ÉDITÉ):**"
	relayNewHeader    = "📨 **Message du canal (✏️ ÉDITÉ - nouveau):**"
	refusalText       = "❌ Commande réservée à l'administrateur"
)

// notify sends text to the admin. Failures are logged only.
func (o *Orchestrator) notify(ctx context.Context, text string) int {
	id, err := o.out.Send(ctx, o.adminID, text)
	if err != nil {
		o.logger.Warn("admin notification failed", zap.Error(err))
		return 0
	}
	return id
}

func (o *Orchestrator) refuse(ctx context.Context, chatID int64) error {
	if _, err := o.out.Send(ctx, chatID, refusalText); err != nil {
		return fmt.Errorf("send refusal: %w", err)
	}
	return nil
}

// relay copies a stat channel message to the admin chat.
// An edit updates the earlier copy, or sends a new one when the source is unknown.
func (o *Orchestrator) relay(ctx context.Context, ev bus.Event) error {
	if ev.Kind == bus.KindEdited {
		if copyID, ok := o.relayed[ev.MessageID]; ok {
			if err := o.out.Edit(ctx, o.adminID, copyID, relayEditedHeader+"\n\n"+ev.Text); err != nil {
				return fmt.Errorf("relay edit: %w", err)
			}
			return nil
		}
		return o.relayNew(ctx, ev.MessageID, relayNewHeader+"\n\n"+ev.Text)
	}
	return o.relayNew(ctx, ev.MessageID, relayHeader+"\n\n"+ev.Text)
}

func (o *Orchestrator) relayNew(ctx context.Context, sourceID int, text string) error {
	id, err := o.out.Send(ctx, o.adminID, text)
	if err != nil {
		return fmt.Errorf("relay send: %w", err)
	}
	o.relayed[sourceID] = id
	return nil
}

// inviteChannel tells the admin how to select a channel the bot was added to.
func (o *Orchestrator) inviteChannel(ctx context.Context, ev bus.Event) error {
	title := ev.ChatTitle
	if title == "" {
		title = "Sans titre"
	}
	text := fmt.Sprintf("🔔 **Nouveau canal détecté**\n\n"+
		"📋 Titre: %s\n🆔 ID: %d\n\n"+
		"Utilisez /set_channel %d pour recevoir les résultats de ce canal\n"+
		"ou /set_display %d pour y publier les prédictions.",
		title, ev.ChatID, ev.ChatID, ev.ChatID)
	if _, err := o.out.Send(ctx, o.adminID, text); err != nil {
		return fmt.Errorf("send channel invitation: %w", err)
	}
	return nil
}

func statsText(s domain.ResultStats) string {
	var b strings.Builder
	b.WriteString("📊 **Statistiques actuelles:**\n")
	fmt.Fprintf(&b, "• Total: %d parties\n", s.Total)
	fmt.Fprintf(&b, "• Joueur: %d (%.1f%%)\n", s.PlayerWins, s.PlayerRate)
	fmt.Fprintf(&b, "• Banquier: %d (%.1f%%)", s.BankerWins, s.BankerRate)
	return b.String()
}

func resultRecordedText(r *domain.Result, edited bool, s domain.ResultStats) string {
	head := "✅ **Partie enregistrée!**"
	if edited {
		head += " (message finalisé)"
	}
	return fmt.Sprintf("%s\n\n🎮 Jeu #%d: %s\n\n%s", head, r.GameNumber, r.Winner.Label(), statsText(s))
}

func catalogText(s domain.CatalogStats, next []*domain.Prediction) string {
	var b strings.Builder
	b.WriteString("📊 **Statistiques Prédictions Excel**\n\n")
	fmt.Fprintf(&b, "• Total: %d\n• Lancées: %d\n• En attente: %d", s.Total, s.Launched, s.Pending)
	if len(next) > 0 {
		b.WriteString("\n\n**Prochaines prédictions:**")
		for _, p := range next {
			fmt.Fprintf(&b, "\n• #%d: %s", p.PredictedNumber, p.ExpectedWinner.Label())
		}
	}
	return b.String()
}

func importText(title string, s domain.ImportSummary) string {
	return fmt.Sprintf("%s\n\n"+
		"• Importées: %d\n"+
		"• Remplacées: %d\n"+
		"• Ignorées (déjà lancées): %d\n"+
		"• Ignorées (consécutives): %d\n"+
		"• Total: %d",
		title, s.Imported, s.Replaced, s.SkippedAlreadyLaunched, s.SkippedConsecutive, s.Total)
}
