package env

import (
	"os"
)

const (
	AWSRegion         = "AWS_REGION"
	AWSID             = "AWS_ID"
	AWSSecret         = "AWS_SECRET"
	AWSToken          = "AWS_TOKEN"
	DynamoDBEndpoint  = "DYNAMODB_ENDPOINT"
	OperatorSecretKey = "OPERATOR_SECRET"
	ChatRedisURL      = "CHAT_REDIS_URL"
	ChatRedisPass     = "CHAT_REDIS_PASS"
	ChatTokenSecret   = "CHAT_TOKEN_SECRET"
	MediaUploadURL    = "MEDIA_UPLOAD_URL"
	MediaUploadKey    = "MEDIA_UPLOAD_KEY"
	WebUrl            = "WEB_URL"
)

// ValidateRequired panics when a required variable is missing. Each server
// binary calls this on startup so misconfiguration fails fast instead of
// surfacing as request errors later.
func ValidateRequired() {
	required := []string{
		AWSRegion,
		AWSID,
		AWSSecret,
		// AWSToken,
		OperatorSecretKey,
		ChatRedisURL,
		ChatTokenSecret,
		WebUrl,
	}
	for _, key := range required {
		if os.Getenv(key) == "" {
			panic("env: required environment variable not set: " + key)
		}
	}
}

func Get(key string) string {
	return os.Getenv(key)
}

func GetOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func MustGet(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic("env: required environment variable not set: " + key)
	}
	return val
}
