package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/celestix/gotgproto"
	"github.com/celestix/gotgproto/sessionMaker"
	"github.com/celestix/gotgproto/storage"
	"github.com/glebarez/sqlite"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/maneralab/parsbot/internal/nats"
	"github.com/maneralab/parsbot/internal/objstore"
	"github.com/maneralab/parsbot/internal/repository"
	"github.com/maneralab/parsbot/internal/telegram"
)

const sessionDB = "tg-auth-session.db"

// tg-auth signs the shared account in once, interactively, and seeds the
// service with everything it needs: the account record in the database and
// the session blob in the object store.
func main() {
	fmt.Println("=== telegram account setup ===")
	fmt.Println("this tool authorizes the shared account and stores its session")
	fmt.Println()

	_ = godotenv.Load()

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		fmt.Println("error: DATABASE_URL is required")
		os.Exit(1)
	}
	natsURL := os.Getenv("NATS_URL")
	if natsURL == "" {
		natsURL = "nats://localhost:4222"
	}
	bucket := os.Getenv("BLOB_BUCKET")
	if bucket == "" {
		fmt.Println("error: BLOB_BUCKET is required")
		os.Exit(1)
	}

	reader := bufio.NewReader(os.Stdin)
	apiID, apiHash := getAPICredentials(reader)

	fmt.Print("enter the account phone number (with country code, e.g. +1234567890): ")
	phone, _ := reader.ReadString('\n')
	phone = strings.TrimSpace(phone)

	fmt.Println("\nauthenticating... (check telegram for code)")

	client, err := gotgproto.NewClient(
		apiID,
		apiHash,
		gotgproto.ClientTypePhone(phone),
		&gotgproto.ClientOpts{
			Session:          sessionMaker.SqlSession(sqlite.Open(sessionDB)),
			DisableCopyright: true,
		},
	)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		os.Exit(1)
	}

	username := client.Self.Username
	client.Stop()

	blob, err := readSessionBlob()
	if err != nil {
		fmt.Printf("error reading session: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	nc, err := nats.New(ctx, natsURL)
	if err != nil {
		fmt.Printf("error connecting to nats: %v\n", err)
		os.Exit(1)
	}
	defer nc.Close()

	bkt, err := nc.ObjectStore(ctx, bucket)
	if err != nil {
		fmt.Printf("error opening blob bucket: %v\n", err)
		os.Exit(1)
	}
	store := objstore.NewJetStreamStore(bucket, bkt)

	ref, err := store.Upload(ctx, objstore.SessionName(), blob)
	if err != nil {
		fmt.Printf("error uploading session blob: %v\n", err)
		os.Exit(1)
	}

	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		fmt.Printf("error connecting to database: %v\n", err)
		os.Exit(1)
	}

	accounts := repository.NewAccountsRepository(db)
	err = accounts.Upsert(ctx, &repository.Account{
		Phone:      phone,
		APIID:      apiID,
		APIHash:    apiHash,
		SessionRef: ref,
	})
	if err != nil {
		fmt.Printf("error saving account: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\n✓ authentication successful!")
	fmt.Printf("logged in as: @%s\n", username)
	fmt.Printf("session stored as: %s\n", ref)
	fmt.Println("\nnote: " + sessionDB + " was created for temporary storage.")
	fmt.Println("you can delete it now, the service reads the stored blob.")
}

// readSessionBlob pulls the freshly written gotgproto session out of the
// local sqlite file and converts it to the service's blob format.
func readSessionBlob() ([]byte, error) {
	db, err := gorm.Open(sqlite.Open(sessionDB), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}

	var sess storage.Session
	if err := db.Table("sessions").Order("version DESC").First(&sess).Error; err != nil {
		return nil, fmt.Errorf("read session row: %w", err)
	}

	return telegram.SessionBlobFromStorage(&sess)
}

// getAPICredentials reads API ID and Hash from env or prompts user
func getAPICredentials(reader *bufio.Reader) (int, string) {
	apiIDStr := os.Getenv("TG_API_ID")
	apiHash := os.Getenv("TG_API_HASH")

	if apiIDStr == "" {
		fmt.Print("enter your api_id (from https://my.telegram.org): ")
		apiIDStr, _ = reader.ReadString('\n')
		apiIDStr = strings.TrimSpace(apiIDStr)
	}
	if apiHash == "" {
		fmt.Print("enter your api_hash: ")
		apiHash, _ = reader.ReadString('\n')
		apiHash = strings.TrimSpace(apiHash)
	}

	apiID, err := strconv.Atoi(apiIDStr)
	if err != nil {
		fmt.Printf("error: invalid api_id: %v\n", err)
		os.Exit(1)
	}

	return apiID, apiHash
}
