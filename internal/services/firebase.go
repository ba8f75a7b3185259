package services

import (
	"context"
	"sync"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

var (
	firebaseOnce sync.Once
	firebaseAuth *auth.Client
	firebaseErr  error
)

// InitFirebase initializes the Firebase Admin SDK exactly once per process and
// returns the shared auth client. Later calls return the first result, so the
// handle never depends on call order.
func InitFirebase(credPath string) (*auth.Client, error) {
	firebaseOnce.Do(func() {
		opt := option.WithCredentialsFile(credPath)
		app, err := firebase.NewApp(context.Background(), nil, opt)
		if err != nil {
			firebaseErr = err
			return
		}
		firebaseAuth, firebaseErr = app.Auth(context.Background())
	})
	return firebaseAuth, firebaseErr
}
