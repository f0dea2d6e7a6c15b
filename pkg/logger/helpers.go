package logger

import (
	"fmt"
	"time"
)

// LogRequest logs HTTP request information at a level matching the status
func LogRequest(l Logger, method, url string, statusCode int, duration time.Duration) {
	fields := map[string]interface{}{
		"method":      method,
		"url":         url,
		"status_code": statusCode,
		"duration":    duration,
	}

	switch {
	case statusCode >= 200 && statusCode < 300:
		l.DebugWithFields("HTTP request completed", fields)
	case statusCode >= 400 && statusCode < 500:
		l.WarnWithFields("HTTP request client error", fields)
	case statusCode >= 500:
		l.ErrorWithFields("HTTP request server error", fields)
	default:
		l.InfoWithFields("HTTP request completed", fields)
	}
}

// LogRateLimit logs a limiter sleep
func LogRateLimit(l Logger, limit string, sleep time.Duration) {
	l.WithFields(map[string]interface{}{
		"limit":  limit,
		"sleep":  sleep,
		"action": "rate_limited",
	}).Info("Rate limit reached, sleeping")
}

// LogCrawlProgress logs progress through one crawl phase
func LogCrawlProgress(l Logger, phase string, done, total int) {
	percentage := 0.0
	if total > 0 {
		percentage = float64(done) / float64(total) * 100
	}

	l.WithFields(map[string]interface{}{
		"phase":      phase,
		"done":       done,
		"total":      total,
		"percentage": fmt.Sprintf("%.1f%%", percentage),
	}).Info("Crawl progress")
}
