package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/alapierre/go-ksef-proxy/ksef/cipher"
	"github.com/alapierre/go-ksef-proxy/ksef/util"
	"github.com/alapierre/go-ksef-proxy/mock"
	"github.com/alapierre/go-ksef-proxy/proxy"
)

func main() {

	if util.DebugEnabled() {
		logrus.SetLevel(logrus.DebugLevel)
	}
	logrus.SetFormatter(&logrus.TextFormatter{
		DisableColors: false,
		FullTimestamp: true,
	})

	store := mock.NewStore()
	simulator := mock.New(store)
	encryptor := cipher.NewEncryptionService()
	handlers := proxy.NewHandlers(simulator, encryptor)

	server, err := proxy.NewServer(proxy.Config{
		Port:     proxy.Port(),
		Handlers: handlers,
	})
	if err != nil {
		logrus.Fatalf("cannot create server: %v", err)
	}

	mode := proxy.ResolveMode()
	logrus.Infof("starting KSeF proxy, mock=%v, environment=%s", mode.UseMock, mode.Environment.Name())

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		<-stop

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logrus.Errorf("shutdown: %v", err)
		}
	}()

	if err := server.Start(); err != nil {
		logrus.Fatalf("server error: %v", err)
	}
}
