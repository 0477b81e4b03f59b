/*
Package status renders per-file outcomes and run progress for the user.

🎯 Purpose:
- Prints one line per finished file (written / skipped / failed)
- Drives a progress bar across the candidate set
- Mirrors every event into zerolog for debugging
- Prints the end-of-run summary

The package implements pipeline.Reporter, so the pipeline never knows
how its results are displayed.
*/
package status
