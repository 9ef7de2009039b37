package main

import (
	"context"
	"log"
	"net/http"
)

type contextKey string

const StudentIDKey contextKey = "studentId"

// ExtractStudentMiddleware takes the student id from the header set by the
// authenticating proxy in front of the server.
func ExtractStudentMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		studentID := r.Header.Get("X-Auth-User")

		if studentID == "" {
			studentID = r.Header.Get("X-Forwarded-User")
		}
		if studentID == "" {
			studentID = r.Header.Get("Remote-User")
		}

		if studentID == "" {
			log.Printf("authentication failed: no user header on %s %s", r.Method, r.URL.Path)
			respondError(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), StudentIDKey, studentID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GetStudentID(r *http.Request) string {
	studentID, ok := r.Context().Value(StudentIDKey).(string)
	if !ok {
		return ""
	}
	return studentID
}
