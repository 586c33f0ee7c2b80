// hetresolve is the command-line entry point for the haplotype resolver,
// built the way ga.go assembles its subcommands: one cli.New app, one
// DefineSubCommand per operation, flags declared in a brace-scoped block
// right under each subcommand.
package main

import (
	"log"
	"os"

	"github.com/eernst/hetresolve/alignment"
	"github.com/eernst/hetresolve/bamalign"
	"github.com/eernst/hetresolve/config"
	"github.com/eernst/hetresolve/dotexport"
	"github.com/eernst/hetresolve/graphio"
	"github.com/eernst/hetresolve/haplotype"
	"github.com/eernst/hetresolve/hrlog"
	"github.com/eernst/hetresolve/report"
	"github.com/jwaldrip/odin/cli"
)

var app = cli.New("1.0.0", "Collapse heterozygous bulges and loops, and report complex heterotypic bubbles in a repeat graph", func(c cli.Command) {})

func init() {
	app.DefineStringFlag("cfg", "hetresolve.yaml", "configure file")
	app.DefineBoolFlag("Debug", false, "enable debug logging")

	mask := app.DefineSubCommand("mask", "mark heterozygous bulges without excising them", maskBulges)
	{
		mask.DefineStringFlag("graph", "graph.rgraph.zst", "input graph dump")
		mask.DefineStringFlag("bam", "", "read-to-edge BAM file")
	}

	collapse := app.DefineSubCommand("collapse", "collapse heterozygous bulges and loops", collapseHet)
	{
		collapse.DefineStringFlag("graph", "graph.rgraph.zst", "input graph dump")
		collapse.DefineStringFlag("bam", "", "read-to-edge BAM file")
		collapse.DefineStringFlag("out", "collapsed.rgraph.zst", "output graph dump")
		collapse.DefineStringFlag("dot", "", "optional dot file of the collapsed graph")
	}

	complex := app.DefineSubCommand("complex", "detect complex heterotypic bubbles", findComplex)
	{
		complex.DefineStringFlag("graph", "graph.rgraph.zst", "input graph dump")
		complex.DefineStringFlag("bam", "", "read-to-edge BAM file")
		complex.DefineStringFlag("report", "bubbles.json.br", "output bubble report")
	}
}

func main() {
	app.Start()
}

func loadResolver(c cli.Command) (*haplotype.Resolver, *bamalign.Aligner) {
	hrlog.Debug = c.Parent().Flag("Debug").Get().(bool)
	cfgPath := c.Parent().Flag("cfg").String()
	cfg := config.NewViper(cfgPath)

	fp, err := os.Open(c.Flag("graph").String())
	if err != nil {
		log.Fatalf("[hetresolve] open graph: %v", err)
	}
	defer fp.Close()

	g, err := graphio.Read(fp)
	if err != nil {
		log.Fatalf("[hetresolve] read graph: %v", err)
	}

	var aligner *bamalign.Aligner
	bamPath := c.Flag("bam").String()
	if bamPath != "" {
		aligner = bamalign.New(bamPath, g)
	}

	var al alignment.Aligner
	if aligner != nil {
		al = aligner
	}
	return haplotype.New(g, al, cfg), aligner
}

func maskBulges(c cli.Command) {
	r, _ := loadResolver(c)
	n := r.CollapseHeterozygousBulges(false)
	log.Printf("[mask] marked %d bulges\n", n)
}

func collapseHet(c cli.Command) {
	r, _ := loadResolver(c)
	bulges := r.CollapseHeterozygousBulges(true)
	loops := r.CollapseHeterozygousLoops(true)
	log.Printf("[collapse] collapsed %d bulges, %d loops\n", bulges, loops)

	outPath := c.Flag("out").String()
	outFp, err := os.Create(outPath)
	if err != nil {
		log.Fatalf("[hetresolve] create %s: %v", outPath, err)
	}
	defer outFp.Close()
	if err := graphio.Write(r.Graph(), outFp); err != nil {
		log.Fatalf("[hetresolve] write graph: %v", err)
	}

	if dotPath := c.Flag("dot").String(); dotPath != "" {
		dotFp, err := os.Create(dotPath)
		if err != nil {
			log.Fatalf("[hetresolve] create %s: %v", dotPath, err)
		}
		defer dotFp.Close()
		if err := dotexport.Write(r.Graph(), dotFp); err != nil {
			log.Fatalf("[hetresolve] write dot: %v", err)
		}
	}
}

func findComplex(c cli.Command) {
	r, _ := loadResolver(c)
	_, bubbles := r.FindComplexHaplotypes()
	log.Printf("[complex] found %d complex bubbles\n", len(bubbles))

	reportPath := c.Flag("report").String()
	outFp, err := os.Create(reportPath)
	if err != nil {
		log.Fatalf("[hetresolve] create %s: %v", reportPath, err)
	}
	defer outFp.Close()
	if err := report.WriteComplexBubbles(bubbles, outFp); err != nil {
		log.Fatalf("[hetresolve] write report: %v", err)
	}
}
