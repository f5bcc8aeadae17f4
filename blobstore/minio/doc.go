// Package minio provides a blobstore.BlobStore for MinIO and other
// S3-compatible object stores (Ceph, Garage, SeaweedFS).
//
//	client, err := minio.New("localhost:9000", &minio.Options{
//	    Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
//	    Secure: false,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	store := minioblob.NewStore(client, "my-bucket", "matrices/")
package minio
