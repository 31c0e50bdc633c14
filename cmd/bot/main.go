package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/joho/godotenv"

	discordadapter "github.com/jose-valero/autoroom-bot/internal/adapters/discord"
	"github.com/jose-valero/autoroom-bot/internal/app/service"
	"github.com/jose-valero/autoroom-bot/internal/infra/config"
	"github.com/jose-valero/autoroom-bot/internal/infra/storage"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	_ = godotenv.Load()
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg := config.Load()

	// DB
	db, err := storage.Open(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()
	if err := storage.Migrate(db); err != nil {
		log.Fatal("migrate:", err)
	}
	log.Println("✅ DB lista y migrada")

	// Repos
	configRepo := storage.NewConfigRepo(db)
	roomsRepo := storage.NewRoomsRepo(db)

	// Migración del esquema de documentos de config
	if err := service.NewSchemaMigrator(configRepo).Run(context.Background()); err != nil {
		log.Fatal("schema:", err)
	}

	// Discord session
	auth := cfg.DiscordToken
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(auth)), "bot ") {
		auth = "Bot " + strings.TrimSpace(auth)
	}
	s, err := discordgo.New(auth)
	if err != nil {
		log.Fatal(err)
	}
	// GuildMembers y GuildPresences necesitan los privileged intents
	// activados en el portal de desarrolladores
	s.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildVoiceStates |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildPresences
	s.StateEnabled = true
	if err := s.Open(); err != nil {
		log.Fatal(err)
	}
	defer s.Close()
	log.Printf("✅ Conectado como %s (%s)", s.State.User.Username, s.State.User.ID)

	// Services
	platform := discordadapter.NewPlatform(s)
	claimBucket := service.NewLimiter(1, 120*time.Second)
	roomsSvc := service.NewRoomService(platform, roomsRepo, configRepo, claimBucket)
	ownershipSvc := service.NewOwnershipService(platform, roomsRepo, configRepo, claimBucket)
	sourcesSvc := service.NewSourcesService(platform, configRepo, roomsRepo)

	// Router
	r := discordadapter.NewRouter(s, cfg.DiscordGuild, cfg.AdminRoleIDs, roomsSvc, ownershipSvc, sourcesSvc)
	if err := r.Register(); err != nil {
		log.Fatalf("registrando comandos: %v", err)
	}
	r.Handlers()
	log.Println("✅ comandos registrados")

	// Barrido de arranque: rooms huérfanos de la sesión anterior
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if err := roomsSvc.Reconcile(ctx); err != nil {
			log.Printf("reconcile: %v", err)
		}
	}()

	// Esperar señal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-stop
}
