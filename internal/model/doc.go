// Package model defines the core data structures used throughout
// the image downloader.
//
// # ImageReference
//
// ImageReference is a single image link discovered on a listing page:
// an absolute URL plus its lowercase path extension. References are
// immutable once created.
//
//	ref, err := model.NewImageReference("https://portal.example.com/orderfiles/1/photo.JPG?width=100")
//	fmt.Println(ref.Extension) // ".jpg"
//
// # DownloadTask
//
// DownloadTask tracks one download through its lifecycle:
//
//	Pending → InFlight → {Succeeded | Failed}
//
// Retry attempts loop inside InFlight; the Attempts field records how
// many were made. Tasks are created and owned exclusively by the
// download scheduler.
//
// # DownloadResult and Summary
//
// Each task folds into a read-only DownloadResult once it reaches a
// terminal status. A Summary aggregates the results of a whole run:
//
//	fmt.Printf("%d/%d succeeded\n", summary.Succeeded, summary.Total)
package model
