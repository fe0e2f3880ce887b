// Package staging manages the temporary workspace that holds extracted
// archives and the staged outputs left beside converted files.
//
// It provides the single-run lock on the workspace, removal of the workspace
// after a clean run, discovery and removal of staged outputs abandoned by a
// crash, and a listing of extraction directories with their sizes.
package staging
