package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/altmunch/SocialSchedule-sub011/pkg/scan"
)

// reportView renders a scan report for the terminal.
type reportView struct {
	*scan.Report
}

func (v reportView) WriteText(w io.Writer) error {
	fmt.Fprintf(w, "Scan %s finished in %s: %d activity, %d posts, %d failed\n",
		v.ID, v.Duration().Round(time.Millisecond), len(v.Activity), len(v.Posts), v.Failures())

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	if len(v.Activity) > 0 {
		fmt.Fprintln(tw, "\nTARGET\tFOLLOWERS\tFOLLOWING\tPOSTS\tERROR")
		for _, a := range v.Activity {
			if a.Activity == nil {
				fmt.Fprintf(tw, "%s\t-\t-\t-\t%s\n", a.Target, a.Error)
				continue
			}
			fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t\n",
				a.Target, a.Activity.FollowerCount, a.Activity.FollowingCount, a.Activity.PostCount)
		}
	}

	if len(v.Posts) > 0 {
		fmt.Fprintln(tw, "\nTARGET\tPOST\tPRIORITY\tVIEWS\tLIKES\tCOMMENTS\tSHARES\tENGAGEMENT\tERROR")
		for _, p := range v.Posts {
			if p.Metrics == nil {
				fmt.Fprintf(tw, "%s\t%s\t%d\t-\t-\t-\t-\t-\t%s\n", p.Target, p.PostID, p.Priority, p.Error)
				continue
			}
			m := p.Metrics
			fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\t%d\t%.2f%%\t\n",
				p.Target, p.PostID, p.Priority, m.Views, m.Likes, m.Comments, m.Shares, m.EngagementRate)
		}
	}

	return tw.Flush()
}
