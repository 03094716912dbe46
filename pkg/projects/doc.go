// Package projects manages project records. A project is associated with one
// or more organizations and optionally with teams; visibility flows through
// either path. Creating a project requires administering every organization
// it would attach to, while updating or deleting it requires administering
// any one of them.
package projects
