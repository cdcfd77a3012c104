package main

import (
	"flag"

	"k8s.io/klog/v2"
)

var (
	s3CredentialsFile string
	listenAddr        string
	runOnce           bool
)

func init() {
	flag.StringVar(&s3CredentialsFile, "s3-credentials-file", "", "File where s3 credentials are stored as JSON. When empty the env/EC2-role credential chain is used.")
	flag.StringVar(&listenAddr, "listen", ":8090", "Address the HTTP API listens on.")
	flag.BoolVar(&runOnce, "run-once", false, "Run the upload/download/verify/list chain once and exit instead of serving HTTP.")
	klog.InitFlags(nil)
}
