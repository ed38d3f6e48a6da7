// Package resultfile reads WESTPA result files (west.h5, assign.h5,
// direct.h5) while a simulation may still be writing them.
//
// Every read goes through Accessor.With, which scopes one open handle to one
// callback. When the primary file cannot be opened (HDF5 refuses to open a
// file another process holds locked for writing) the accessor copies it to a
// sibling "<stem>_COPY.h5", reads the copy, and deletes it before returning.
// The copy is a point-in-time snapshot and may lag the live file.
//
// The on-disk format lives behind the File interface; the HDF5 implementation
// is in the h5file subpackage and MemFile is an in-memory one.
package resultfile
