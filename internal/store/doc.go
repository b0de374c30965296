// Package store defines the persistence ports consumed by the services:
// one generic node repository per tree kind, the progress repository, the
// question catalog and the session log. Implementations live under
// internal/platform and must give all-or-nothing semantics to the work done
// inside TxManager.WithinTx.
package store
