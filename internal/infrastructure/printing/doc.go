// Package printing provides the DANFE rendering infrastructure.
//
// This package contains:
// - TemplateEngine, html/template with money and number helpers
// - DANFERenderer, which lays out a fiscal.Document as the NFCe receipt fragment
// - PDFRenderer interface and the chromedp implementation for PDF export
// - PDFStorage interface and FileSystemStorage for exported PDFs
//
// Example usage:
//
//	renderer := NewDANFERenderer(NewTemplateEngine())
//	html, err := renderer.Render(ctx, doc, printing.DefaultPageWidth)
//	if err != nil {
//	    return err
//	}
//
//	pdf, err := chromedpRenderer.Render(ctx, &RenderRequest{
//	    HTML:      html,
//	    PageWidth: printing.DefaultPageWidth,
//	})
package printing
