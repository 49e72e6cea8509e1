// Package workflow runs the favorites sync end to end.
//
// The run is strictly sequential:
//
//  1. Probe Notion access (failures are logged, not fatal).
//  2. Log in through "Continue with Apple" (any failure aborts the run).
//  3. Scrape the link of the first favorite (errors abort; a label that
//     never shows up yields an empty result).
//  4. Publish whatever was scraped (failures are logged; the run still
//     completes).
//
// UI elements are found by screenshot OCR, not by DOM queries. Every lookup
// takes a fresh screenshot and retries until the text appears or the step
// timeout elapses, so there are no fixed sleeps between steps.
package workflow
