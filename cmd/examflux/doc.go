// Examflux is a CLI for reviewing AI-generated exam items.
//
// It lists the pending review queue, records approve/reject decisions,
// surfaces similar items, commits the approved cart, and requests new
// items from the generation backend.
//
// Usage:
//
//	examflux items                    # list the pending queue
//	examflux approve 12               # approve item 12
//	examflux reject 7                 # reject item 7
//	examflux similar 12 --top-k 6     # show nearest neighbors
//	examflux cart list                # list approved, uncommitted items
//	examflux cart commit              # commit the cart
//	examflux generate --prompt "..."  # generate a new item
//	examflux serve                    # run the reference backend
package main
