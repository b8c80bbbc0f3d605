// Package galleria implements a small REST backend for a folder-organized
// image bucket: folder and image listing, upload, per-folder and per-image
// delete, plus a user directory with bcrypt credentials and a role check.
//
// Folders are synthetic. The bucket holds a flat set of keys and a "folder"
// is the key segment before the first "/", recomputed from a listing on
// every request; nothing is persisted for an empty folder.
//
// # Key Components
//
//   - GalleryService: folder/image operations over a StorageGateway
//   - StorageGateway: interface to the object-storage provider (see storage
//     for the S3-compatible implementation)
//   - UserService: user CRUD and credential checks over a UserRepo
//   - UserRepo: interface for user persistence (PostgreSQL, SQLite)
//
// # Example Usage
//
//	gallery, err := galleria.NewGalleryService(gateway, galleria.GalleryConfig{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	folders, err := gallery.ListFolders(ctx)
//	images, err := gallery.ListImages(ctx, "trip-photos")
//
// See the http package for the REST surface and the database package for the
// user store backends.
package galleria
