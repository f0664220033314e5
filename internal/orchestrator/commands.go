package orchestrator

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"baccarat-ledger/internal/bus"
	"baccarat-ledger/internal/domain"
	"baccarat-ledger/internal/spreadsheet"
)

// pendingPreview is the number of pending predictions listed by /stats_excel.
const pendingPreview = 5

// exportLayout stamps manual export file names.
const exportLayout = "2006-01-02_15-04-05"

var xlsxMimeTypes = map[string]bool{
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
	"application/vnd.ms-excel": true,
}

const helpText = "🤖 **Bot de résultats Baccarat**\n\n" +
	"**Commandes disponibles:**\n" +
	"/status - État du bot et statistiques\n" +
	"/fichier - Exporter les résultats en Excel\n" +
	"/reset - Remettre à zéro les résultats\n" +
	"/set_channel <id> - Canal des résultats\n" +
	"/set_display <id> - Canal d'affichage des prédictions\n" +
	"/start_transfer - Activer le transfert des messages\n" +
	"/stop_transfer - Désactiver le transfert des messages\n" +
	"/stats_excel - Statistiques des prédictions\n" +
	"/clear_excel - Effacer les prédictions\n\n" +
	"📎 Envoyez un fichier Excel (.xlsx) pour importer des prédictions."

// handlePrivate routes a private text message.
func (o *Orchestrator) handlePrivate(ctx context.Context, ev bus.Event) error {
	text := strings.TrimSpace(ev.Text)
	isCommand := strings.HasPrefix(text, "/")

	if ev.SenderID != o.adminID {
		if isCommand {
			return o.refuse(ctx, ev.ChatID)
		}
		return nil
	}

	if o.awaitReset {
		o.awaitReset = false
		if strings.EqualFold(text, "OUI") {
			return o.resetLedger(ctx, ev.ChatID)
		}
		return o.reply(ctx, ev.ChatID, "❌ **Remise à zéro annulée**\n\nLes données sont conservées.")
	}

	if !isCommand {
		return nil
	}

	name, arg := splitCommand(text)
	o.logger.Info("admin command", zap.String("command", name))

	switch name {
	case "/start", "/help":
		return o.reply(ctx, ev.ChatID, helpText)
	case "/status":
		return o.reply(ctx, ev.ChatID, o.statusText())
	case "/fichier":
		return o.sendExport(ctx, ev.ChatID)
	case "/reset":
		o.awaitReset = true
		return o.reply(ctx, ev.ChatID, "⚠️ **Confirmation requise**\n\n"+
			"Toutes les parties enregistrées seront effacées.\nRépondez OUI pour confirmer.")
	case "/set_channel":
		id, ok := parseChannelID(arg)
		if !ok {
			return o.reply(ctx, ev.ChatID, "❌ Usage: /set_channel <channel_id>")
		}
		if err := o.updateSettings(ctx, func(s *domain.Settings) { s.StatChannel = id }); err != nil {
			return err
		}
		return o.reply(ctx, ev.ChatID, fmt.Sprintf("✅ Canal de statistiques configuré: %d", id))
	case "/set_display":
		id, ok := parseChannelID(arg)
		if !ok {
			return o.reply(ctx, ev.ChatID, "❌ Usage: /set_display <channel_id>")
		}
		if err := o.updateSettings(ctx, func(s *domain.Settings) { s.DisplayChannel = id }); err != nil {
			return err
		}
		return o.reply(ctx, ev.ChatID, fmt.Sprintf("✅ Canal d'affichage configuré: %d", id))
	case "/start_transfer":
		if err := o.updateSettings(ctx, func(s *domain.Settings) { s.TransferEnabled = true }); err != nil {
			return err
		}
		return o.reply(ctx, ev.ChatID, "🔔 Transfert des messages activé")
	case "/stop_transfer":
		if err := o.updateSettings(ctx, func(s *domain.Settings) { s.TransferEnabled = false }); err != nil {
			return err
		}
		return o.reply(ctx, ev.ChatID, "🔕 Transfert des messages désactivé")
	case "/stats_excel":
		next := o.catalog.PendingList()
		if len(next) > pendingPreview {
			next = next[:pendingPreview]
		}
		return o.reply(ctx, ev.ChatID, catalogText(o.catalog.Stats(), next))
	case "/clear_excel":
		if err := o.catalog.Clear(ctx); err != nil {
			return err
		}
		return o.reply(ctx, ev.ChatID, "✅ Toutes les prédictions Excel ont été effacées")
	}
	return o.reply(ctx, ev.ChatID, "❓ Commande inconnue. Tapez /help")
}

func (o *Orchestrator) reply(ctx context.Context, chatID int64, text string) error {
	if _, err := o.out.Send(ctx, chatID, text); err != nil {
		return fmt.Errorf("send reply: %w", err)
	}
	return nil
}

func (o *Orchestrator) statusText() string {
	s := o.Settings()

	channel := "❌ Non configuré"
	if s.StatChannel != 0 {
		channel = strconv.FormatInt(s.StatChannel, 10)
	}
	displayCh := "❌ Non configuré"
	if s.DisplayChannel != 0 {
		displayCh = strconv.FormatInt(s.DisplayChannel, 10)
	}
	transfer := "🔕 Désactivé"
	if s.TransferEnabled {
		transfer = "🔔 Activé"
	}

	return fmt.Sprintf("📈 **Statut du bot**\n\n"+
		"📺 Canal des résultats: %s\n"+
		"🖥 Canal d'affichage: %s\n"+
		"📨 Transfert: %s\n\n%s\n\n%s",
		channel, displayCh, transfer, statsText(o.ledger.Stats()), catalogText(o.catalog.Stats(), nil))
}

// sendExport sends the current ledger as an xlsx document.
func (o *Orchestrator) sendExport(ctx context.Context, chatID int64) error {
	if err := o.reply(ctx, chatID, "📊 Génération du fichier Excel en cours..."); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := o.ledger.Export(&buf); err != nil {
		return fmt.Errorf("export ledger: %w", err)
	}
	name := "resultats_" + o.now().In(o.location).Format(exportLayout) + ".xlsx"
	caption := "📊 **Export des résultats**\n\nFichier Excel généré avec succès!"
	if err := o.out.SendDocument(ctx, chatID, name, &buf, caption); err != nil {
		return fmt.Errorf("send export: %w", err)
	}
	return nil
}

// resetLedger clears the ledger and sends a fresh empty export.
func (o *Orchestrator) resetLedger(ctx context.Context, chatID int64) error {
	if err := o.reply(ctx, chatID, "🔄 **Remise à zéro en cours...**"); err != nil {
		return err
	}
	if err := o.ledger.Clear(ctx); err != nil {
		return fmt.Errorf("clear ledger: %w", err)
	}

	var buf bytes.Buffer
	if err := o.ledger.Export(&buf); err != nil {
		return fmt.Errorf("export ledger: %w", err)
	}
	name := "resultats_" + o.now().In(o.location).Format(exportLayout) + ".xlsx"
	caption := "📄 **Nouveau fichier Excel créé**\n\nLe fichier est vide et prêt pour de nouvelles parties."
	if err := o.out.SendDocument(ctx, chatID, name, &buf, caption); err != nil {
		o.logger.Warn("reset export send failed", zap.Error(err))
	}

	return o.reply(ctx, chatID, "✅ **Remise à zéro effectuée**\n\nToutes les parties ont été effacées.")
}

// importDocument replaces the prediction catalog with an uploaded workbook.
func (o *Orchestrator) importDocument(ctx context.Context, ev bus.Event) error {
	doc := ev.Document
	if doc == nil || !isXLSX(doc) {
		return o.reply(ctx, ev.ChatID, "❌ Veuillez envoyer un fichier Excel (.xlsx)")
	}

	data, err := o.downloader.Download(ctx, doc.FileID)
	if err != nil {
		o.logger.Warn("document download failed", zap.String("file_id", doc.FileID), zap.Error(err))
		return o.reply(ctx, ev.ChatID, "❌ Impossible de télécharger le fichier")
	}

	rows, err := spreadsheet.ReadXLSX(bytes.NewReader(data), o.location)
	if err != nil {
		o.logger.Warn("document parse failed", zap.String("file_name", doc.FileName), zap.Error(err))
		return o.reply(ctx, ev.ChatID, fmt.Sprintf("❌ Erreur lors de la lecture du fichier: %v", err))
	}

	summary, err := o.catalog.Import(ctx, rows)
	if err != nil {
		// The catalog is replaced in memory even when the snapshot write fails
		o.logger.Error("prediction import persist failed", zap.Error(err))
	}
	return o.reply(ctx, ev.ChatID, importText("✅ **Import Excel réussi (REMPLACEMENT)**", summary))
}

func isXLSX(doc *bus.Document) bool {
	if xlsxMimeTypes[doc.MimeType] {
		return true
	}
	return strings.EqualFold(filepath.Ext(doc.FileName), ".xlsx")
}

// splitCommand returns the command without bot suffix and the remaining text.
func splitCommand(text string) (string, string) {
	name, arg, _ := strings.Cut(text, " ")
	if i := strings.Index(name, "@"); i > 0 {
		name = name[:i]
	}
	return strings.ToLower(name), strings.TrimSpace(arg)
}

func parseChannelID(arg string) (int64, bool) {
	if arg == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(strings.Fields(arg)[0], 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}
