// Package workspace stages build output beside the live output directory and
// promotes it with directory renames.
//
// A Staging directory is a sibling of the output (<output>.staging-<id>) so
// the final rename never crosses a filesystem boundary. Commit moves the
// current output to <output>.prev, renames the staging directory into place
// and removes the backup. Abort removes the staging directory and leaves the
// current output untouched.
package workspace
