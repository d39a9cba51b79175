// Package jobs runs AI processing jobs stored in ai_processing_jobs.
//
// Requests enqueue a job and return immediately. A Worker polls the table on
// a cron schedule, claims due jobs with FOR UPDATE SKIP LOCKED so several
// server instances can poll concurrently, and runs the handler registered for
// the job type. Failed jobs are retried with exponential backoff when the
// error is recoverable. The requester is notified when a job completes or
// fails for good.
package jobs
