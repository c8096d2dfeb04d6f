package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"

	"regubot-client/internal/config"
	"regubot-client/internal/pkg/logger"
	"regubot-client/internal/render"
	"regubot-client/internal/repository/memory"
	"regubot-client/pkg/compliance/answer"
	"regubot-client/pkg/compliance/catalog"
	"regubot-client/pkg/compliance/conversation"
	"regubot-client/pkg/compliance/normalize"
	"regubot-client/pkg/compliance/orchestrator"
	"regubot-client/pkg/compliance/progress"
	"regubot-client/pkg/regubot"
	"regubot-client/pkg/store"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Logger (file only; the terminal belongs to the prompt)
	appLogger := logger.NewFileOnlyLogger(cfg.App.LogFilePath)
	defer appLogger.Sync()

	// Domain components log through a plain *log.Logger; keep it off the
	// interactive terminal.
	domainLogger := log.New(io.Discard, "", log.LstdFlags)
	if cfg.App.Environment == "development" {
		if f, err := os.OpenFile("regubot_domain.log", os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644); err == nil {
			domainLogger.SetOutput(f)
		}
	}

	// 3. Initialize Backend Client
	client := regubot.NewClient(cfg.Backend.BaseURL, cfg.Backend.RequestTimeout, cfg.Backend.AnalyzeTimeout)

	ctx := context.Background()
	renderer := render.NewRenderer(os.Stdout)

	// 4. Health Check (degraded backend is a notice, not fatal)
	if health, err := client.Health(ctx); err != nil {
		renderer.Notify(orchestrator.NotifyWarning, "Backend tidak merespons health check: "+err.Error())
	} else if health.Status != "healthy" {
		renderer.Notify(orchestrator.NotifyWarning, "Backend melaporkan status: "+health.Status)
	}

	// 5. Fetch Standards Catalog (once; survives session resets)
	cat := loadCatalog(ctx, client, renderer)

	// 6. Assemble the Orchestrator
	orch := orchestrator.New(
		client,
		cat,
		normalize.NewNormalizer(domainLogger),
		answer.NewResolver(domainLogger),
		conversation.NewManager(),
		progress.NewScheduler(nil, domainLogger),
		memory.NewSessionRepository(),
		appLogger,
		renderer,
		orchestrator.Options{CancelProgressOnSettle: cfg.Progress.CancelOnSettle},
	)

	// 7. Interactive Loop
	color.Cyan("ReguBot Compliance Client")
	fmt.Println("Ketik 'help' untuk daftar perintah.")
	repl(ctx, orch, cat, renderer, cfg.App.DownloadDir)
}

func loadCatalog(ctx context.Context, client *regubot.Client, renderer *render.Renderer) *catalog.Catalog {
	resp, err := client.GetStandards(ctx)
	if err != nil {
		renderer.Notify(orchestrator.NotifyWarning, "Gagal memuat katalog standar, memakai daftar bawaan: "+err.Error())
		return catalog.Default()
	}
	cat := catalog.Parse(resp)
	if cat.Len() == 0 {
		renderer.Notify(orchestrator.NotifyWarning, "Katalog standar kosong, memakai daftar bawaan.")
		return catalog.Default()
	}
	return cat
}

func repl(ctx context.Context, orch *orchestrator.Orchestrator, cat *catalog.Catalog, renderer *render.Renderer, downloadDir string) {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		command, arg, _ := strings.Cut(line, " ")
		arg = strings.TrimSpace(arg)

		switch command {
		case "help":
			printHelp()
		case "standards":
			renderer.Catalog(cat, orch.Session().SelectedStandards)
		case "select":
			selectFile(ctx, orch, renderer, arg)
		case "toggle":
			if arg == "" {
				renderer.Notify(orchestrator.NotifyWarning, "Gunakan: toggle <KEY>")
				continue
			}
			selected, err := orch.ToggleStandard(arg)
			if err != nil {
				renderer.Notify(orchestrator.NotifyError, err.Error())
				continue
			}
			if selected {
				renderer.Notify(orchestrator.NotifyInfo, "Standar "+arg+" dipilih.")
			} else {
				renderer.Notify(orchestrator.NotifyInfo, "Standar "+arg+" dibatalkan.")
			}
		case "analyze":
			if err := orch.StartAnalysis(ctx); err != nil {
				renderer.Notify(orchestrator.NotifyError, err.Error())
				continue
			}
			if result := orch.LastResult(); result != nil {
				renderer.Result(result)
			}
		case "chat":
			if arg == "" {
				renderer.Notify(orchestrator.NotifyWarning, "Gunakan: chat <pertanyaan>")
				continue
			}
			if err := orch.SendChatMessage(ctx, arg); err != nil {
				if _, local := err.(*orchestrator.ValidationError); local {
					renderer.Notify(orchestrator.NotifyError, err.Error())
					continue
				}
			}
			renderer.Transcript(orch.Transcript().Turns())
		case "transcript":
			renderer.Transcript(orch.Transcript().Turns())
		case "download":
			if arg == "" {
				arg = "pdf"
			}
			if _, err := orch.DownloadReport(ctx, arg, downloadDir); err != nil {
				if _, local := err.(*orchestrator.ValidationError); local {
					renderer.Notify(orchestrator.NotifyError, err.Error())
				}
			}
		case "status":
			status, err := orch.SessionStatus(ctx)
			if err != nil {
				renderer.Notify(orchestrator.NotifyError, err.Error())
				continue
			}
			fmt.Printf("Sesi %s: file=%v laporan=%v\n", status.SessionId, status.HasUploadedFile, status.HasReports)
		case "remove":
			orch.RemoveFile()
		case "exit", "quit":
			return
		default:
			renderer.Notify(orchestrator.NotifyWarning, "Perintah tidak dikenal: "+command)
		}
	}
}

func selectFile(ctx context.Context, orch *orchestrator.Orchestrator, renderer *render.Renderer, path string) {
	if path == "" {
		renderer.Notify(orchestrator.NotifyWarning, "Gunakan: select <path-file>")
		return
	}
	info, err := os.Stat(path)
	if err != nil {
		renderer.Notify(orchestrator.NotifyError, "File tidak ditemukan: "+path)
		return
	}
	file, err := os.Open(path)
	if err != nil {
		renderer.Notify(orchestrator.NotifyError, "Gagal membuka file: "+err.Error())
		return
	}
	defer file.Close()

	meta := store.FileMeta{
		Name: filepath.Base(path),
		Size: info.Size(),
		Kind: kindForFile(path),
	}
	if err := orch.SelectFile(ctx, meta, file); err != nil {
		if _, local := err.(*orchestrator.ValidationError); local {
			renderer.Notify(orchestrator.NotifyError, err.Error())
		}
	}
}

func kindForFile(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return "application/pdf"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".txt":
		return "text/plain"
	default:
		if kind := mime.TypeByExtension(filepath.Ext(path)); kind != "" {
			return kind
		}
		return "application/octet-stream"
	}
}

func printHelp() {
	fmt.Println(`Perintah:
  standards            tampilkan katalog standar
  select <path>        pilih dan upload dokumen (pdf/docx/txt, maks 15MB)
  toggle <KEY>         pilih/batalkan standar untuk analisis
  analyze              jalankan analisis kepatuhan
  chat <pertanyaan>    tanya jawab atas hasil analisis
  transcript           tampilkan riwayat chat
  download [pdf|docx]  unduh laporan
  status               status sesi di backend
  remove               hapus file dan reset sesi
  exit                 keluar`)
}
