package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"k8s.io/klog/v2"
)

//How to test:
// Post:
//    curl -v -X POST http://127.0.0.1:8090/transfer -H 'Content-Type: multipart/form-data' -F file=@covid_data.csv -F key=covid_data.csv
// Get:
//    curl -v -X GET http://127.0.0.1:8090/transfer\?key\=covid_data.csv -o "covid_data.csv"
// Verify:
//    curl -v -X GET http://127.0.0.1:8090/verify\?key\=covid_data.csv
// List:
//    curl -v -X GET http://127.0.0.1:8090/objects
func transferHandler(w http.ResponseWriter, req *http.Request) {
	switch req.Method {
	case http.MethodPost:
		if err := handlePostTransfer(req); err != nil {
			http.Error(w, fmt.Sprintf("failed to handle the transfer: %v", err), httpStatus(err))
		}
	case http.MethodGet:
		if err := handleGetTransfer(w, req); err != nil {
			http.Error(w, fmt.Sprintf("failed to handle the transfer: %v", err), httpStatus(err))
		}
	default:
		http.Error(w, fmt.Sprintf("Bad Request: %s method not supported\n", req.Method), http.StatusMethodNotAllowed)
	}
}

func verifyHandler(w http.ResponseWriter, req *http.Request) {
	if err := handleVerify(w, req); err != nil {
		http.Error(w, fmt.Sprintf("failed to verify: %v", err), httpStatus(err))
	}
}

func objectsHandler(w http.ResponseWriter, req *http.Request) {
	if err := handleListObjects(w, req); err != nil {
		http.Error(w, fmt.Sprintf("failed to list the objects: %v", err), httpStatus(err))
	}
}

func health(w http.ResponseWriter, req *http.Request) {
	fmt.Fprint(w, "ok")
}

func newRouter() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/transfer", transferHandler).Methods("GET", "POST")
	r.HandleFunc("/verify", verifyHandler).Methods("GET")
	r.HandleFunc("/objects", objectsHandler).Methods("GET")
	r.HandleFunc("/health", health).Methods("GET")
	return r
}

// runOnceChain is the scripted flow: upload the configured file, pull
// it back, check its integrity and list the bucket.
func runOnceChain() error {
	if err := svc.Upload(cfg.UploadFile, cfg.Bucket, cfg.Key); err != nil {
		return err
	}
	localPath, err := svc.Download(cfg.Key, cfg.Bucket, cfg.DownloadDir)
	if err != nil {
		return err
	}
	verified, err := svc.Verify(localPath, cfg.Bucket, cfg.Key)
	if err != nil {
		return err
	}
	if !verified {
		return fmt.Errorf("integrity check failed for %s", localPath)
	}
	_, err = svc.List(cfg.Bucket)
	return err
}

func main() {
	flag.Parse()
	klog.Info("Start: transfer-bot")

	cfg = loadConfig()
	if cfg.Bucket == "" {
		klog.Fatal("BUCKET_NAME is missing from the environment")
	}
	if err := backingStoreInit(); err != nil {
		klog.Fatalf("failed to backingStoreInit: %v", err)
	}

	if runOnce {
		if err := runOnceChain(); err != nil {
			klog.Fatalf("run-once chain failed: %v", err)
		}
		return
	}

	r := newRouter()
	err := r.Walk(func(route *mux.Route, router *mux.Router, ancestors []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err == nil {
			fmt.Println("ROUTE:", pathTemplate)
		}
		methods, err := route.GetMethods()
		if err == nil {
			fmt.Println("Methods:", strings.Join(methods, ","))
		}
		fmt.Println()
		return nil
	})

	if err != nil {
		fmt.Println(err)
	}

	if err := http.ListenAndServe(listenAddr, r); err != nil {
		log.Fatalf("Failed to start the webserver: %v", err)
	}
}
