// Package state persists run checkpoints.
//
// After every delivered batch the runner records the input offset just past
// the batch's last item. Resuming from that offset re-reads the entries of
// the batch that was still open, so nothing is lost and nothing delivered is
// sent twice.
//
//	repo := state.NewFileRepository(dir)
//	st, err := repo.Load(ctx)
//	...
//	st.Commit(lastOffset, lastLine)
//	err = repo.Save(ctx, st)
package state
