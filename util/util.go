package util

import (
	"encoding/base64"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/skip2/go-qrcode"
)

// NormalizeBasePath turns a deployment sub-path into the "/a/b" form used as
// route prefix. The root path becomes the empty string.
func NormalizeBasePath(basePath string) string {
	basePath = strings.TrimSpace(basePath)
	basePath = strings.Trim(basePath, "/")
	if basePath == "" {
		return ""
	}
	return "/" + basePath
}

// StripBasePath returns the path relative to the base path, always starting with "/"
func StripBasePath(basePath, requestPath string) string {
	rel := strings.TrimPrefix(requestPath, basePath)
	if rel == "" || rel[0] != '/' {
		rel = "/" + rel
	}
	return rel
}

// QRCodeDataURI encodes content as a base64 png data uri
func QRCodeDataURI(content string, size int) (string, error) {
	png, err := qrcode.Encode(content, qrcode.Medium, size)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

func StringFromEmbedFile(embed fs.FS, filename string) (string, error) {
	file, err := embed.Open(filename)
	if err != nil {
		return "", err
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return "", err
	}
	return string(content), nil
}

func ParseLogLevel(lvl string) (log.Lvl, error) {
	switch strings.ToLower(lvl) {
	case "debug":
		return log.DEBUG, nil
	case "info":
		return log.INFO, nil
	case "warn":
		return log.WARN, nil
	case "error":
		return log.ERROR, nil
	case "off":
		return log.OFF, nil
	default:
		return log.DEBUG, fmt.Errorf("not a valid log level: %s", lvl)
	}
}

func LookupEnvOrString(key string, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

func LookupEnvOrBool(key string, defaultVal bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		v, err := strconv.ParseBool(val)
		if err != nil {
			fmt.Fprintf(os.Stderr, "LookupEnvOrBool[%s]: %v\n", key, err)
			return defaultVal
		}
		return v
	}
	return defaultVal
}

func LookupEnvOrInt(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		v, err := strconv.Atoi(val)
		if err != nil {
			fmt.Fprintf(os.Stderr, "LookupEnvOrInt[%s]: %v\n", key, err)
			return defaultVal
		}
		return v
	}
	return defaultVal
}

func LookupEnvOrFloat(key string, defaultVal float64) float64 {
	if val, ok := os.LookupEnv(key); ok {
		v, err := strconv.ParseFloat(val, 64)
		if err != nil {
			fmt.Fprintf(os.Stderr, "LookupEnvOrFloat[%s]: %v\n", key, err)
			return defaultVal
		}
		return v
	}
	return defaultVal
}

func LookupEnvOrDuration(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		v, err := time.ParseDuration(val)
		if err != nil {
			fmt.Fprintf(os.Stderr, "LookupEnvOrDuration[%s]: %v\n", key, err)
			return defaultVal
		}
		return v
	}
	return defaultVal
}
