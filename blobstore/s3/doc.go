// Package s3 provides a blobstore.BlobStore backed by Amazon S3.
//
// Row-block files are read with ranged GetObject requests, so a matrix can be
// streamed by the I/O workers without first being downloaded:
//
//	store, err := s3.NewFromConfig(ctx, "my-bucket", "matrices/")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	m, err := flashmat.Open(ctx, store, "A")
//
// Writes go through the multipart upload manager.
package s3
