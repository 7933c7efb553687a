package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/lealre/ratebeer-backend/internal/config"
	"github.com/lealre/ratebeer-backend/internal/mongodb"
	"github.com/lealre/ratebeer-backend/internal/services/users"
)

func main() {
	indexes := flag.Bool("indexes", false, "create indexes in the database if they do not exist")
	resetIndexes := flag.Bool("reset", false, "Delete the indexes and recreate it")
	deleteIndexes := flag.Bool("delete", false, "Delete the indexes")
	createUser := flag.Bool("user", false, "create a user account")
	username := flag.String("username", "", "username of the account created with -user")
	name := flag.String("name", "", "display name of the account created with -user")
	password := flag.String("password", "", "password of the account created with -user")

	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.StoreBackend != config.StoreMongo {
		log.Fatalf("STORE_BACKEND must be %q to manage the database", config.StoreMongo)
	}

	ctx := context.Background()
	dbClient, err := mongodb.Connect(ctx, cfg.MongoURI)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer dbClient.Disconnect(ctx)

	db := mongodb.NewDB(dbClient, cfg.MongoDB)
	database := dbClient.Database(db.GetDatabaseName())

	switch {
	case *indexes:
		if *deleteIndexes {
			if err := mongodb.DeleteAllIndexes(ctx, database); err != nil {
				log.Fatalf("Failed to delete indexes: %v", err)
			}
			fmt.Println("All indexes deleted successfully!")
			return
		}

		if err := mongodb.CreateAllIndexes(ctx, database, *resetIndexes); err != nil {
			log.Fatalf("Failed to create indexes: %v", err)
		}
		fmt.Println("Indexes command ran successfully!")

	case *createUser:
		usersColl := mongodb.NewCollection[mongodb.UserDb](db, mongodb.UsersCollection, cfg.StoreMaxRetries)
		service := users.NewService(usersColl, cfg.TokenSecret, cfg.TokenTTL)

		user, err := service.AddUser(ctx, users.NewUserRequest{
			Username: *username,
			Name:     *name,
			Password: *password,
		})
		if err != nil {
			log.Fatalf("Failed to create user: %v", err)
		}
		fmt.Printf("User %s created with id %s\n", user.Username, user.Id)

	default:
		fmt.Println("No valid command specified.")
		flag.Usage()
	}
}
